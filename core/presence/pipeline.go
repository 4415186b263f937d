package presence

import (
	"context"
	"fmt"

	"github.com/trezcool/kazi/core"
)

type (
	// BadgeResolver maps a device badge UID to an employee ID.
	BadgeResolver func(ctx context.Context, uid string) (int, error)

	// EventApplier applies one resolved presence event.
	EventApplier func(ctx context.Context, employeeID int, ev Event) error
)

// NewEventHandler builds the presence-topic handler: decode, resolve,
// apply. Malformed payloads and unknown badges are logged and dropped at
// this boundary; they never reach the classification engine.
func NewEventHandler(resolve BadgeResolver, apply EventApplier, logger core.Logger) MessageHandler {
	return func(topic string, payload []byte) {
		ctx := context.Background()

		ev, err := DecodeEvent(payload)
		if err != nil {
			logger.Warn(fmt.Sprintf("presence: dropping event on %q: %v", topic, err), err)
			return
		}

		employeeID, err := resolve(ctx, ev.EmployeeUID)
		if err != nil {
			logger.Warn(fmt.Sprintf("presence: dropping event for unknown badge %q: %v", ev.EmployeeUID, err), err)
			return
		}

		if err = apply(ctx, employeeID, ev); err != nil {
			logger.Error(fmt.Sprintf("presence: applying event for employee %d: %v", employeeID, err), err)
		}
	}
}
