package main

import (
	"errors"
	"etix/src/config"
	"etix/src/lib"
	"etix/src/types"
	"etix/src/utils"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func eventHandlers(g *gin.RouterGroup, cache lib.Cache) *gin.RouterGroup {
	g.
		GET("/events", func(ctx *gin.Context) {
			events, err := utils.ListEvents(ctx.Request.Context(), cache)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": events, "empty": len(events) == 0})
		}).
		GET("/events/search", func(ctx *gin.Context) {
			var query types.SearchEventsQuery
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			events, err := utils.SearchEvents(&query)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			// An unmatched search is informational, never an error.
			ctx.JSON(http.StatusOK, gin.H{"data": events, "empty": len(events) == 0})
		}).
		GET("/events/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			event, err := utils.GetEvent(params.ID)
			if err != nil {
				if errors.Is(err, utils.ErrEventNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": event})
		})
	return g
}

func eventOwnerHandlers(g *gin.RouterGroup, cache lib.Cache) *gin.RouterGroup {
	g.
		POST("/events", func(ctx *gin.Context) {
			var body types.CreateEventRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			eventId, err := utils.CreateNewEvent(&body, userId)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := cache.Invalidate(ctx.Request.Context(), config.EVENT_LIST_CACHE_KEY); err != nil {
				log.Printf("[cache] Error invalidating event list: %s\n", err.Error())
			}
			ctx.JSON(http.StatusCreated, gin.H{"id": eventId})
		}).
		DELETE("/events/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			if err := utils.DeleteEvent(params.ID, userId); err != nil {
				if errors.Is(err, utils.ErrEventNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				if errors.Is(err, utils.ErrNotEventCreator) {
					ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := cache.Invalidate(ctx.Request.Context(), config.EVENT_LIST_CACHE_KEY); err != nil {
				log.Printf("[cache] Error invalidating event list: %s\n", err.Error())
			}
			ctx.Status(http.StatusNoContent)
		}).
		POST("/events/:id/seats", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.CreateSeatRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			seat, err := utils.CreateNewSeat(params.ID, &body)
			if err != nil {
				if errors.Is(err, utils.ErrEventNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				if errors.Is(err, utils.ErrDuplicateSeatType) {
					ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": seat})
		})
	return g
}
