package ws

import (
	"github.com/gorilla/websocket"

	"github.com/mjcole76/octochase"
	"github.com/mjcole76/octochase/internal/net/intake"
	"github.com/mjcole76/octochase/internal/net/proto"
)

// Serve streams a session to an upgraded connection and feeds client input
// back into it until the connection drops or the session closes.
func (h *Handler) Serve(session *octochase.Session, wsConn *websocket.Conn) {
	if h == nil || session == nil || wsConn == nil {
		return
	}
	c := &conn{ws: wsConn}

	data, err := proto.EncodeState(proto.State{ServerTime: h.now().UnixMilli(), Snapshot: session.Snapshot()})
	if err != nil {
		h.logger.Printf("failed to marshal initial state for %s: %v", session.ID, err)
		_ = c.Close()
		return
	}
	if err := c.send(data, h.now()); err != nil {
		_ = c.Close()
		return
	}

	unsubscribe := session.Subscribe(c)
	defer unsubscribe()

	for {
		_, payload, err := wsConn.ReadMessage()
		if err != nil {
			return
		}

		msg, err := proto.DecodeClientMessage(payload)
		if err != nil {
			h.logger.Printf("discarding malformed message from %s: %v", session.ID, err)
			continue
		}

		if msg.Type == proto.TypeHeartbeat {
			now := h.now()
			rtt := session.Heartbeat(now, msg.SentAt)
			ack, err := proto.EncodeHeartbeat(proto.Heartbeat{
				ServerTime: now.UnixMilli(),
				ClientTime: msg.SentAt,
				RTTMillis:  rtt.Milliseconds(),
			})
			if err != nil {
				h.logger.Printf("failed to marshal heartbeat ack for %s: %v", session.ID, err)
				continue
			}
			if err := c.send(ack, now); err != nil {
				return
			}
			continue
		}

		_, ok, reason := intake.StageClientCommand(intake.CommandContext{Target: session, Now: h.now}, msg)
		if ok {
			continue
		}
		if reason == intake.RejectInvalid {
			h.logger.Printf("unknown message type %q from %s", msg.Type, session.ID)
		}
		reject, err := proto.EncodeCommandReject(proto.CommandReject{Type: msg.Type, Reason: reason})
		if err != nil {
			h.logger.Printf("failed to marshal reject for %s: %v", session.ID, err)
			continue
		}
		if err := c.send(reject, h.now()); err != nil {
			return
		}
	}
}
