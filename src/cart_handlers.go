package main

import (
	"errors"
	"etix/src/config"
	"etix/src/lib"
	"etix/src/types"
	"etix/src/utils"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func cartHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/cart", func(ctx *gin.Context) {
			var body types.AddToCartRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			ticketIDs, warnings, err := utils.AddToCart(userId, &body)
			if err != nil {
				log.Printf("[AddToCart] error: %s\n", err.Error())
				if errors.Is(err, utils.ErrSeatNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				if errors.Is(err, utils.ErrCapacityExceeded) {
					ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			runsAt := time.Now().Add(config.RESERVATION_HOLD_WINDOW)
			if _, err := lib.CreateOneTimeJob(runsAt, func() {
				if _, err := utils.ExpireReservations(); err != nil {
					log.Printf("[scheduler] Error expiring reservations: %s\n", err.Error())
				}
			}); err != nil {
				log.Printf("[scheduler] Error scheduling expiry check: %s\n", err.Error())
			}
			ctx.JSON(http.StatusCreated, gin.H{"tickets": ticketIDs, "warnings": warnings})
		}).
		GET("/cart", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			tickets, err := utils.GetCartTickets(userId)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			summary, err := utils.GetCartSummary(userId)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			byType, err := utils.GetCartSummaryBySeatType(userId)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			byEvent, err := utils.GetCartSummaryByEvent(userId)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"data":     tickets,
				"summary":  summary,
				"by_type":  byType,
				"by_event": byEvent,
			})
		}).
		DELETE("/cart/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			if err := utils.DeleteCartItem(userId, params.ID); err != nil {
				if errors.Is(err, utils.ErrTicketNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				if errors.Is(err, utils.ErrTicketAlreadyPayed) || errors.Is(err, utils.ErrPaymentInProgress) {
					ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		POST("/cart/checkout", func(ctx *gin.Context) {
			var body types.CheckoutRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			method, err := types.ParsePaymentType(body.Method)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			count, err := utils.BeginPayment(userId, method)
			if err != nil {
				log.Printf("[BeginPayment] error: %s\n", err.Error())
				if errors.Is(err, utils.ErrCartEmpty) {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				if errors.Is(err, utils.ErrPaymentInProgress) {
					ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"tickets": count, "method": method.String()})
		}).
		POST("/cart/checkout/cancel", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			count, err := utils.CancelPayment(userId)
			if err != nil {
				if errors.Is(err, utils.ErrNoPendingPayment) {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"tickets": count})
		})
	return g
}
