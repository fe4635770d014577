package intake

import (
	"time"

	"github.com/mjcole76/octochase/internal/net/proto"
	"github.com/mjcole76/octochase/internal/sim"
)

// Rejection reasons reported back to the client.
const (
	RejectInvalid   = "invalid_command"
	RejectQueueFull = "queue_full"
	RejectNoSession = "unknown_session"
)

// Enqueuer accepts commands for a running simulation.
type Enqueuer interface {
	Enqueue(sim.Command) bool
}

type CommandContext struct {
	Target Enqueuer
	Now    func() time.Time
}

// StageClientCommand validates a client message and queues the command it
// carries. It returns the staged command, or the reason it was refused.
func StageClientCommand(ctx CommandContext, msg proto.ClientMessage) (sim.Command, bool, string) {
	var zero sim.Command

	command, ok := proto.ClientCommand(msg)
	if !ok {
		return zero, false, RejectInvalid
	}

	switch command.Type {
	case sim.CommandMove:
		if command.Move == nil {
			return zero, false, RejectInvalid
		}
	case sim.CommandPause:
		if command.Pause == nil {
			return zero, false, RejectInvalid
		}
	case sim.CommandDash, sim.CommandInk:
	default:
		return zero, false, RejectInvalid
	}

	if ctx.Now != nil {
		command.IssuedAt = ctx.Now()
	} else {
		command.IssuedAt = time.Now()
	}

	if ctx.Target == nil {
		return zero, false, RejectNoSession
	}
	if !ctx.Target.Enqueue(command) {
		return zero, false, RejectQueueFull
	}

	return command, true, ""
}
