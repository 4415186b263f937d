package brokersvc

import (
	"context"
	"sync"

	"github.com/trezcool/kazi/core/presence"
)

// MockBroker is an in-process presence.Broker for tests: it records
// broker-level subscribe/unsubscribe/publish calls and lets tests
// deliver inbound messages and simulate connection loss.
type MockBroker struct {
	mu               sync.Mutex
	dialErr          error
	dialCount        int
	conn             *mockConn
	subscribeCalls   map[string]int
	unsubscribeCalls map[string]int
	published        map[string][][]byte
}

var _ presence.Broker = (*MockBroker)(nil) // interface compliance check

func NewMockBroker() *MockBroker {
	return &MockBroker{
		subscribeCalls:   make(map[string]int),
		unsubscribeCalls: make(map[string]int),
		published:        make(map[string][][]byte),
	}
}

func (b *MockBroker) Dial(_ context.Context, r presence.Receiver) (presence.Conn, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.dialCount++
	if b.dialErr != nil {
		return nil, b.dialErr
	}
	b.conn = &mockConn{broker: b, recv: r, topics: make(map[string]bool)}
	return b.conn, nil
}

// FailDialWith makes subsequent Dial calls fail with err (nil restores
// normal behavior).
func (b *MockBroker) FailDialWith(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dialErr = err
}

// Deliver pushes an inbound message through the current connection.
func (b *MockBroker) Deliver(topic string, payload []byte) {
	b.mu.Lock()
	conn := b.conn
	subscribed := conn != nil && !conn.closed && conn.topics[topic]
	b.mu.Unlock()

	if subscribed {
		conn.recv.HandleMessage(topic, payload)
	}
}

// DropConnection simulates broker-initiated connection loss.
func (b *MockBroker) DropConnection(err error) {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()

	if conn != nil {
		conn.recv.HandleConnectionLost(err)
	}
}

func (b *MockBroker) DialCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dialCount
}

func (b *MockBroker) SubscribeCalls(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.subscribeCalls[topic]
}

func (b *MockBroker) UnsubscribeCalls(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.unsubscribeCalls[topic]
}

func (b *MockBroker) Published(topic string) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]byte(nil), b.published[topic]...)
}

type mockConn struct {
	broker *MockBroker
	recv   presence.Receiver
	topics map[string]bool
	closed bool
}

var _ presence.Conn = (*mockConn)(nil) // interface compliance check

func (c *mockConn) Subscribe(topic string) error {
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()
	c.topics[topic] = true
	c.broker.subscribeCalls[topic]++
	return nil
}

func (c *mockConn) Unsubscribe(topic string) error {
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()
	delete(c.topics, topic)
	c.broker.unsubscribeCalls[topic]++
	return nil
}

func (c *mockConn) Publish(topic string, payload []byte) error {
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()
	c.broker.published[topic] = append(c.broker.published[topic], payload)
	return nil
}

func (c *mockConn) Close() error {
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()
	c.closed = true
	return nil
}
