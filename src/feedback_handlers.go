package main

import (
	"etix/src/lib"
	"etix/src/lib/mailer"
	"etix/src/types"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

func feedbackHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/feedback", func(ctx *gin.Context) {
			var body types.FeedbackRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			mailbox := os.Getenv("FEEDBACK_MAILBOX")
			input := lib.SendMailInput{
				From:     os.Getenv("SMTP_SENDER"),
				FromName: "Feedback",
				To:       []string{mailbox},
				ReplyTo:  body.Email,
				Subject:  fmt.Sprintf("Feedback from %s", body.Email),
				Body:     body.Comment,
			}
			if err := mailer.NewMailerMessage(&input); err != nil {
				log.Printf("[Feedback] error: %s\n", err.Error())
				ctx.JSON(http.StatusBadGateway, gin.H{"error": "could not deliver feedback"})
				return
			}
			ctx.Status(http.StatusAccepted)
		})
	return g
}
