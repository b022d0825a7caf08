package signal

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/roomhub/internal/core"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(c *WsSignalConn) {
	var ping <-chan time.Time
	if ctl.Cfg.PingPeriod > 0 {
		t := time.NewTicker(ctl.Cfg.PingPeriod)
		defer t.Stop()
		ping = t.C
	}

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeWait))
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "adapters.signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "adapters.signal").Msg("writePump write error")
				return
			}
		case <-ping:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "adapters.signal").Msg("writePump ping error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(room *core.Room, id core.ConnID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "adapters.signal").Str("conn", string(id)).Msg("readPump closing")
		ctl.limiter.Forget(id)
		room.Disconnect(id)
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.Cfg.ReadLimit)
	if ctl.Cfg.PingPeriod > 0 {
		// Peers get one ping period plus slack to answer before the
		// read deadline reaps them.
		wait := ctl.Cfg.PingPeriod + 10*time.Second
		_ = c.conn.SetReadDeadline(time.Now().Add(wait))
		c.conn.SetPongHandler(func(string) error {
			return c.conn.SetReadDeadline(time.Now().Add(wait))
		})
	}

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("module", "adapters.signal").Str("conn", string(id)).Msg("readPump read error")
			}
			return
		}
		if !ctl.limiter.Allow(id) {
			if frame, err := core.NewError("rate limited").Encode(); err == nil {
				_ = c.TrySend(frame)
			}
			continue
		}
		room.Dispatch(id, data)
	}
}
