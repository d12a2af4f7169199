package signal

import (
	"context"
	"fmt"
	"time"

	"github.com/dkeye/Circle/internal/app"
	"github.com/dkeye/Circle/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping failed")
				return
			}
		}
	}
}

// readPump owns the connection lifecycle: when it returns the router
// cleans up presence and the registry exactly once.
func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, conn *app.Conn, c *WsSignalConn) {
	key := string(conn.ID())
	defer func() {
		log.Info().Str("module", "signal").Str("conn", key).Str("user", string(conn.UserID())).Msg("readPump closing")
		cancel()
		c.Close()
		ctl.Orch.OnDisconnect(conn)
		if ctl.Limiter != nil {
			ctl.Limiter.Forget("conn:" + key)
			if uid := conn.UserID(); uid != "" && !ctl.Orch.Registry.Online(uid) {
				ctl.Limiter.Forget("user:" + string(uid))
			}
		}
	}()

	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("conn", key).Msg("readPump ctx done")
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "signal").Str("conn", key).Msg("readPump read error")
			}
			return
		}
		if ctl.Limiter != nil && !ctl.Limiter.Allow(limitKey(conn)) {
			ctl.Orch.Refuse(conn, fmt.Errorf("%w: slow down", domain.ErrRateLimited))
			continue
		}
		ctl.Orch.Dispatch(ctx, conn, data)
	}
}

// limitKey buckets by user once authenticated so extra devices share a
// budget; before that the connection is its own bucket.
func limitKey(conn *app.Conn) string {
	if uid := conn.UserID(); uid != "" {
		return "user:" + string(uid)
	}
	return "conn:" + string(conn.ID())
}
