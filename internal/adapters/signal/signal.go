// Package signal owns the websocket side of the hub: upgrade, identity
// resolution, the read/write pumps and inbound rate limiting. Room semantics
// live in core; this package only moves frames.
package signal

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/roomhub/internal/config"
	"github.com/dkeye/roomhub/internal/core"
	"github.com/dkeye/roomhub/internal/domain"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

type Controller struct {
	Rooms   *core.RoomManager
	Cfg     *config.Config
	limiter *FrameLimiter
}

func NewController(rooms *core.RoomManager, cfg *config.Config) *Controller {
	return &Controller{
		Rooms:   rooms,
		Cfg:     cfg,
		limiter: NewFrameLimiter(cfg.RateLimit, cfg.RateInterval),
	}
}

// WsSignalConn adapts one gorilla connection to core.SignalConnection.
// TrySend never blocks: a full send buffer is an error the room treats as a
// dead peer.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS upgrades the request and hands the connection to its room.
// Identity resolution and the session write happen before the upgrade:
// after the hijack there is no response to attach cookies to.
func (ctl *Controller) HandleWS(c *gin.Context) {
	roomID := domain.RoomID(c.Query("room"))
	if roomID == "" {
		roomID = domain.RoomID(ctl.Cfg.DefaultRoom)
	}
	identity := ctl.resolveIdentity(c)

	// Upgrade writes its own 101 and drops headers already set on the
	// writer, so pending cookies (session attachment, client token) are
	// forwarded explicitly.
	var respHeader http.Header
	if cookies := c.Writer.Header().Values("Set-Cookie"); len(cookies) > 0 {
		respHeader = http.Header{"Set-Cookie": cookies}
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, respHeader)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.Cfg.SendBuffer),
	}

	room := ctl.Rooms.GetOrCreate(roomID)
	connID := room.Accept(conn, identity)
	log.Info().Str("module", "adapters.signal").Str("room", string(roomID)).Str("conn", string(connID)).Msg("new WS connection")

	go ctl.writePump(conn)
	go ctl.readPump(room, connID, conn)
}
