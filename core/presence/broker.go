package presence

import (
	"context"
	"errors"
)

var (
	// ErrDisconnected is returned when an operation needs a live broker
	// connection after an explicit Disconnect.
	ErrDisconnected = errors.New("broker disconnected")
)

type (
	// ConnectionState is the process-wide broker connection snapshot.
	// It is mutated only by the Manager and handed to listeners by value.
	ConnectionState struct {
		Connected  bool
		Connecting bool
		LastError  error
	}

	// MessageHandler consumes one raw broker message.
	MessageHandler func(topic string, payload []byte)

	// StateListener observes connection state transitions.
	StateListener func(state ConnectionState)

	// Conn is one physical link to the message broker.
	// Subscribe/Unsubscribe/Publish are best-effort network calls; inbound
	// messages and link loss are pushed to the Receiver the Conn was
	// dialed with.
	Conn interface {
		Subscribe(topic string) error
		Unsubscribe(topic string) error
		Publish(topic string, payload []byte) error
		Close() error
	}

	// Receiver is the manager-side half of a Conn.
	Receiver interface {
		HandleMessage(topic string, payload []byte)
		HandleConnectionLost(err error)
	}

	// Broker dials physical broker connections.
	Broker interface {
		Dial(ctx context.Context, r Receiver) (Conn, error)
	}
)
