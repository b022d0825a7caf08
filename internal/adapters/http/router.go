package http

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/roomhub/internal/adapters/signal"
	"github.com/dkeye/roomhub/internal/config"
	"github.com/dkeye/roomhub/internal/core"
	"github.com/dkeye/roomhub/internal/metrics"
)

func genClientToken() string {
	return uuid.NewString()
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

// ControlTokenMiddleware guards the control API. An empty configured token
// leaves the surface open; the real trust boundary belongs to whatever sits
// in front of this server.
func ControlTokenMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token != "" && c.GetHeader("X-Control-Token") != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func SetupRouter(cfg *config.Config, rooms *core.RoomManager) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("RoomhubSessions", store))
	r.Use(ClientTokenMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	ctl := signal.NewController(rooms, cfg)
	r.GET("/ws", ctl.HandleWS)

	log.Info().Str("module", "adapters.http").Str("default_room", cfg.DefaultRoom).Msg("router setup")

	api := r.Group("/api", ControlTokenMiddleware(cfg.ControlToken))
	api.GET("/rooms", handleListRooms(rooms))

	room := api.Group("/rooms/:room")
	room.POST("/broadcast", handleBroadcast(rooms))
	room.GET("/presence", handlePresence(rooms))
	room.GET("/stats", handleStats(rooms))

	return r
}
