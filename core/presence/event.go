package presence

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/trezcool/kazi/core"
)

var (
	// errors
	ErrBadPayload         = errors.New("malformed presence event payload")
	ErrMissingEmployeeUID = errors.New("presence event is missing the employee identity token")
	ErrMissingTimestamp   = errors.New("presence event is missing a timestamp")
)

// Event is a single scan reported by a physical identity-reading device.
// Immutable once decoded; only its effect on attendance records is kept.
type Event struct {
	DeviceID    string
	EmployeeUID string
	Timestamp   time.Time
	Kind        string // optional device-supplied hint; direction is inferred downstream
}

// wireEvent is the inbound JSON contract. employeeUid plus at least one
// of timestamp (RFC3339) or ts (unix seconds) are mandatory; deviceId
// and eventKind are optional.
type wireEvent struct {
	DeviceID    string `json:"deviceId"`
	EmployeeUID string `json:"employeeUid"`
	Timestamp   string `json:"timestamp"`
	TS          int64  `json:"ts"`
	EventKind   string `json:"eventKind"`
}

// DecodeEvent validates and decodes a raw broker payload. Anything not
// carrying the mandatory identifying fields is rejected: a partially
// populated event must never reach the classification engine, which
// cannot tell "unknown field" from "explicitly absent" once the original
// payload shape is gone.
func DecodeEvent(payload []byte) (Event, error) {
	var we wireEvent
	if err := json.Unmarshal(payload, &we); err != nil {
		return Event{}, ErrBadPayload
	}

	uid := core.CleanString(we.EmployeeUID)
	if uid == "" {
		return Event{}, ErrMissingEmployeeUID
	}

	var ts time.Time
	switch {
	case we.Timestamp != "":
		t, err := time.Parse(time.RFC3339, we.Timestamp)
		if err != nil {
			return Event{}, ErrBadPayload
		}
		ts = t.UTC()
	case we.TS > 0:
		ts = time.Unix(we.TS, 0).UTC()
	default:
		return Event{}, ErrMissingTimestamp
	}

	return Event{
		DeviceID:    core.CleanString(we.DeviceID),
		EmployeeUID: uid,
		Timestamp:   ts,
		Kind:        core.CleanString(we.EventKind, true),
	}, nil
}
