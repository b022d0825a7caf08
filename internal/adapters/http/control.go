package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/roomhub/internal/core"
	"github.com/dkeye/roomhub/internal/domain"
)

// BroadcastRequest is the control-API injection body. Payload stays raw so
// whatever the caller sent is re-emitted verbatim to subscribers.
type BroadcastRequest struct {
	Channel string          `json:"channel" binding:"required"`
	Payload json.RawMessage `json:"payload"`
}

type BroadcastResponse struct {
	Success    bool `json:"success"`
	Recipients int  `json:"recipients"`
}

func handleBroadcast(rooms *core.RoomManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BroadcastRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindError(err)})
			return
		}
		channel := domain.Channel(req.Channel)
		if !channel.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel name"})
			return
		}

		roomID := domain.RoomID(c.Param("room"))
		room, ok := rooms.Get(roomID)
		if !ok {
			// No open connections, nothing to deliver to.
			c.JSON(http.StatusOK, BroadcastResponse{Success: true})
			return
		}

		n := room.Broadcast(channel, req.Payload, "")
		log.Info().Str("module", "adapters.http").Str("room", string(roomID)).Str("channel", req.Channel).Int("recipients", n).Msg("control broadcast")
		c.JSON(http.StatusOK, BroadcastResponse{Success: true, Recipients: n})
	}
}

func handlePresence(rooms *core.RoomManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		users := []core.PresenceDTO{}
		if room, ok := rooms.Get(domain.RoomID(c.Param("room"))); ok {
			users = room.Presence()
		}
		c.JSON(http.StatusOK, gin.H{"users": users})
	}
}

func handleStats(rooms *core.RoomManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var stats core.RoomStats
		if room, ok := rooms.Get(domain.RoomID(c.Param("room"))); ok {
			stats = room.Stats()
		}
		c.JSON(http.StatusOK, stats)
	}
}

func handleListRooms(rooms *core.RoomManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, rooms.List())
	}
}

// bindError flattens gin's binding failures into the {error: string} shape
// the control API promises.
func bindError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Sprintf("%s is required", strings.ToLower(verrs[0].Field()))
	}
	return err.Error()
}
