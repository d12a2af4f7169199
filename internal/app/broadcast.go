package app

import (
	"github.com/dkeye/Circle/internal/domain"
	"github.com/dkeye/Circle/internal/protocol"
	"github.com/rs/zerolog/log"
)

// PublishResult reports delivery stats of one broadcast.
type PublishResult struct {
	SentTo  int
	Dropped []Dropped
}

// Broadcaster resolves room presence to live connections and fans out.
type Broadcaster struct {
	Rooms    *Directory
	Registry *Registry
	Policy   Policy
}

// BroadcastToRoom sends out to every connection joined to roomID of every
// present member except those owned by exclude (empty excludes nobody).
// A member's devices sitting in other rooms are skipped.
func (b *Broadcaster) BroadcastToRoom(roomID domain.RoomID, out protocol.Outbound, exclude domain.UserID) PublishResult {
	frame, err := protocol.Encode(out)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Str("type", string(out.OutboundType())).Msg("encode")
		return PublishResult{}
	}
	res := PublishResult{}
	inRoom := InRoom(roomID)
	for _, uid := range b.Rooms.Members(roomID) {
		if exclude != "" && uid == exclude {
			continue
		}
		sent, dropped := b.Registry.SendToUser(uid, frame, inRoom)
		res.SentTo += sent
		res.Dropped = append(res.Dropped, dropped...)
	}
	b.applyPolicy(res.Dropped)
	log.Debug().Str("module", "app.broadcast").Uint("room", uint(roomID)).Str("type", string(out.OutboundType())).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

// SendTo replies to a single connection.
func (b *Broadcaster) SendTo(c *Conn, out protocol.Outbound) error {
	frame, err := protocol.Encode(out)
	if err != nil {
		return err
	}
	if err := c.Send(frame); err != nil {
		b.applyPolicy([]Dropped{{Conn: c, Err: err}})
		return err
	}
	return nil
}

func (b *Broadcaster) applyPolicy(dropped []Dropped) {
	if b.Policy == nil {
		return
	}
	for _, d := range dropped {
		switch b.Policy.OnBackPressure(d.Conn, d.Err) {
		case KickMember:
			log.Warn().Str("module", "app.broadcast").Str("conn", string(d.Conn.ID())).Str("user", string(d.Conn.UserID())).Msg("kicking slow consumer")
			d.Conn.Close()
		case DropFrame, NoAction:
		}
	}
}
