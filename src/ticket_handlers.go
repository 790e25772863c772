package main

import (
	"context"
	"encoding/json"
	"errors"
	"etix/src/db"
	"etix/src/lib"
	"etix/src/models"
	"etix/src/types"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yeqown/go-qrcode"
	"gorm.io/gorm"
)

func ticketHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/tickets", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			tickets := []models.EventTicket{}
			db := db.GetDb()
			err := db.
				Model(&models.EventTicket{}).
				Where(&models.EventTicket{UserID: userId, IsPayed: true}).
				Preload("Seat").
				Preload("Seat.Event").
				Preload("Payment").
				Order("date_bought desc").
				Find(&tickets).
				Error
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": tickets})
		}).
		POST("/cart/:id/code", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			filename := fmt.Sprintf("ticketcode_%d", params.ID)
			log.Printf("Download eticket for %s\n", filename)
			rd := lib.GetRedisClient()
			content, err := rd.Get(context.Background(), filename).Result()
			if err != nil {
				if errors.Is(redis.Nil, err) {
					log.Printf("No value for key: %s\n", filename)
				} else {
					log.Printf("Error reading from cache: %s\n", err.Error())
					ctx.Status(http.StatusBadRequest)
					return
				}
			}
			if content != "" {
				ctx.FileAttachment(content, "eticket.jpeg")
				return
			}
			var filepath string
			db := db.GetDb()
			err = db.Transaction(func(tx *gorm.DB) error {
				var ticket models.EventTicket
				if err := tx.
					Where(&models.EventTicket{ID: params.ID, UserID: userId}).
					Preload("Seat").
					Preload("Seat.Event").
					First(&ticket).
					Error; err != nil {
					return err
				}
				if !ticket.IsPayed && !ticket.IsInPayment {
					return errors.New("ticket has not been payed for")
				}
				if time.Now().After(ticket.Seat.Event.EndDate) {
					err := errors.New("ticket is no longer valid")
					log.Printf("Error: %s\n", err.Error())
					return err
				}
				rawData := map[string]any{
					"ticketId": ticket.ID,
					"code":     ticket.Code.String(),
				}
				rawBytes, _ := json.Marshal(rawData)
				qrc, err := qrcode.New(string(rawBytes))
				if err != nil {
					return err
				}
				tempdir := os.Getenv("TEMP_DIR")
				filepath = path.Join(tempdir, fmt.Sprintf("%s.jpeg", filename))
				if err := qrc.Save(filepath); err != nil {
					log.Printf("Could not save qrcode to file [%s]: %s\n", filepath, err.Error())
					return err
				}
				rd.SetEx(context.Background(), filename, filepath, 2*time.Hour)
				return nil
			})
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.FileAttachment(filepath, "eticket.jpeg")
		})
	return g
}
