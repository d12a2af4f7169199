package http

import (
	"context"
	"net/http"

	"github.com/dkeye/Circle/internal/adapters/signal"
	"github.com/dkeye/Circle/internal/config"
	"github.com/dkeye/Circle/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const requestIDHeader = "X-Request-ID"

type roomURI struct {
	RoomID uint `uri:"roomId" binding:"required"`
}

// RequestIDMiddleware tags every request so ws upgrades can be traced.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, ctrl *signal.SignalWSController) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")

	api := r.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"online": ctrl.Orch.Registry.UserCount(),
		})
	})

	// presence is relay-local; persisted rooms nobody is in report zero
	api.GET("/rooms/:roomId/presence", func(c *gin.Context) {
		var uri roomURI
		if err := c.ShouldBindUri(&uri); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
			return
		}
		roomID := domain.RoomID(uri.RoomID)
		c.JSON(http.StatusOK, gin.H{
			"roomId":  roomID,
			"online":  ctrl.Orch.Rooms.Count(roomID),
			"members": ctrl.Orch.Rooms.Members(roomID),
		})
	})

	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("request_id", c.GetString("request_id")).Msg("ws endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	return r
}
