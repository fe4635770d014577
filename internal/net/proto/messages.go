package proto

import (
	"encoding/json"
	"fmt"

	"github.com/mjcole76/octochase/internal/sim"
)

const (
	// Version tracks the wire-protocol revision expected by clients.
	Version = 1

	// Type identifiers for outbound websocket payloads.
	typeState     = "state"
	typeResults   = "results"
	typeHeartbeat = "heartbeat"
	typeReject    = "commandReject"
	typeError     = "error"
)

// Client message type identifiers.
const (
	TypeInput     = "input"
	TypeDash      = "dash"
	TypeInk       = "ink"
	TypePause     = "pause"
	TypeHeartbeat = "heartbeat"
)

// Exported aliases for outbound message type identifiers.
const (
	TypeState   = typeState
	TypeResults = typeResults
	TypeReject  = typeReject
	TypeError   = typeError
)

// ClientMessage captures an inbound websocket message from the client.
type ClientMessage struct {
	Ver    int     `json:"ver,omitempty"`
	Type   string  `json:"type"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
	Paused *bool   `json:"paused,omitempty"`
	SentAt int64   `json:"sentAt"`
}

// DecodeClientMessage converts raw websocket payloads into a structured message.
func DecodeClientMessage(payload []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return msg, err
	}
	if msg.Ver == 0 {
		msg.Ver = Version
	}
	if msg.Ver != Version {
		return msg, fmt.Errorf("unsupported client protocol version %d", msg.Ver)
	}
	return msg, nil
}

// ClientCommand maps a websocket message onto the simulation command it
// carries. Heartbeats are answered by the transport and never become commands.
func ClientCommand(msg ClientMessage) (sim.Command, bool) {
	switch msg.Type {
	case TypeInput:
		return sim.Command{
			Type: sim.CommandMove,
			Move: &sim.MoveCommand{DX: msg.DX, DY: msg.DY},
		}, true
	case TypeDash:
		return sim.Command{Type: sim.CommandDash}, true
	case TypeInk:
		return sim.Command{Type: sim.CommandInk}, true
	case TypePause:
		if msg.Paused == nil {
			return sim.Command{}, false
		}
		return sim.Command{
			Type:  sim.CommandPause,
			Pause: &sim.PauseCommand{Paused: *msg.Paused},
		}, true
	default:
		return sim.Command{}, false
	}
}

// State wraps a simulation snapshot for streaming.
type State struct {
	ServerTime int64
	Snapshot   sim.Snapshot
}

// EncodeState renders a state payload.
func EncodeState(msg State) ([]byte, error) {
	frame := struct {
		Ver        int          `json:"ver"`
		Type       string       `json:"type"`
		ServerTime int64        `json:"serverTime"`
		Snapshot   sim.Snapshot `json:"snapshot"`
	}{
		Ver:        Version,
		Type:       typeState,
		ServerTime: msg.ServerTime,
		Snapshot:   msg.Snapshot,
	}
	return json.Marshal(frame)
}

// EncodeResults renders the final results of a session.
func EncodeResults(results sim.Results) ([]byte, error) {
	frame := struct {
		Ver     int         `json:"ver"`
		Type    string      `json:"type"`
		Results sim.Results `json:"results"`
	}{
		Ver:     Version,
		Type:    typeResults,
		Results: results,
	}
	return json.Marshal(frame)
}

// Heartbeat echoes timing metadata back to the client.
type Heartbeat struct {
	ServerTime int64
	ClientTime int64
	RTTMillis  int64
}

// EncodeHeartbeat renders a heartbeat acknowledgement payload.
func EncodeHeartbeat(msg Heartbeat) ([]byte, error) {
	frame := struct {
		Ver        int    `json:"ver"`
		Type       string `json:"type"`
		ServerTime int64  `json:"serverTime"`
		ClientTime int64  `json:"clientTime"`
		RTTMillis  int64  `json:"rtt"`
	}{
		Ver:        Version,
		Type:       typeHeartbeat,
		ServerTime: msg.ServerTime,
		ClientTime: msg.ClientTime,
		RTTMillis:  msg.RTTMillis,
	}
	return json.Marshal(frame)
}

// CommandReject notifies the client that a message was refused.
type CommandReject struct {
	Type   string
	Reason string
	Tick   uint64
}

// EncodeCommandReject renders a command rejection response.
func EncodeCommandReject(msg CommandReject) ([]byte, error) {
	frame := struct {
		Ver     int    `json:"ver"`
		Type    string `json:"type"`
		Command string `json:"command,omitempty"`
		Reason  string `json:"reason"`
		Tick    uint64 `json:"tick,omitempty"`
	}{
		Ver:     Version,
		Type:    typeReject,
		Command: msg.Type,
		Reason:  msg.Reason,
		Tick:    msg.Tick,
	}
	return json.Marshal(frame)
}

// EncodeError renders a terminal error frame sent before the socket closes.
func EncodeError(message string) ([]byte, error) {
	frame := struct {
		Ver   int    `json:"ver"`
		Type  string `json:"type"`
		Error string `json:"error"`
	}{
		Ver:   Version,
		Type:  typeError,
		Error: message,
	}
	return json.Marshal(frame)
}
