package sim

import "time"

// CommandType enumerates the inputs a host can queue for a simulation.
type CommandType string

const (
	CommandMove      CommandType = "move"
	CommandDash      CommandType = "dash"
	CommandInk       CommandType = "ink"
	CommandPause     CommandType = "pause"
	CommandHeartbeat CommandType = "heartbeat"
)

// MoveCommand carries the desired swim direction.
type MoveCommand struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// PauseCommand toggles the pause flag.
type PauseCommand struct {
	Paused bool `json:"paused"`
}

// Command is one input captured for processing before the next step.
type Command struct {
	Type     CommandType   `json:"type"`
	IssuedAt time.Time     `json:"issuedAt"`
	Move     *MoveCommand  `json:"move,omitempty"`
	Pause    *PauseCommand `json:"pause,omitempty"`
}

// Apply feeds queued commands into the simulation in arrival order. Heartbeats
// and malformed commands are ignored.
func (s *Simulation) Apply(cmds []Command) {
	for _, cmd := range cmds {
		switch cmd.Type {
		case CommandMove:
			if cmd.Move != nil {
				s.SetIntent(Intent{X: cmd.Move.DX, Y: cmd.Move.DY})
			}
		case CommandDash:
			s.Dash()
		case CommandInk:
			s.InkCloud()
		case CommandPause:
			if cmd.Pause != nil {
				s.SetPaused(cmd.Pause.Paused)
			}
		}
	}
}
