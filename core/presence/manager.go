package presence

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/trezcool/kazi/core"
)

// Manager owns the single physical broker connection of the process,
// however many logical subscribers exist. It survives transient network
// loss: on reconnect it resubscribes every registered topic and flushes
// the offline queue before reporting Connected.
//
// State machine: Idle -> Connecting -> Connected -> (Offline|Error) ->
// Connecting -> ... ; Disconnect() is reachable from any state and resets
// the manager to Idle.
type Manager struct {
	broker          Broker
	logger          core.Logger
	reconnectPeriod time.Duration

	mu          sync.Mutex
	conn        Conn
	state       ConnectionState
	subs        map[string]map[int]MessageHandler // topic -> id -> handler
	listeners   map[int]StateListener
	queue       *offlineQueue
	nextID      int
	gen         int // bumped by Disconnect; stales in-flight attempts & reconnect loops
	connectDone chan struct{}
	connectErr  error

	dispatchMu sync.Mutex // serializes per-message dispatch
}

func NewManager(broker Broker, conf *core.Config, logger core.Logger) *Manager {
	return &Manager{
		broker:          broker,
		logger:          logger,
		reconnectPeriod: conf.Broker.ReconnectPeriod,
		subs:            make(map[string]map[int]MessageHandler),
		listeners:       make(map[int]StateListener),
		queue:           newOfflineQueue(conf.Broker.OfflineQueueSize),
	}
}

// State returns the current connection state snapshot.
func (m *Manager) State() ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// AddStateListener registers fn to be invoked synchronously on every
// connection state transition. The returned func removes it.
func (m *Manager) AddStateListener(fn StateListener) (remove func()) {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// setState mutates the state under the lock, then notifies all listeners
// outside of it with the new snapshot.
func (m *Manager) setState(state ConnectionState) {
	m.mu.Lock()
	m.state = state
	fns := make([]StateListener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

// Connect establishes the physical connection. It is idempotent: if
// already connected it returns immediately, and if an attempt is already
// in flight the caller waits on that attempt instead of starting a
// second one (starting two is the classic duplicate-connection race).
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.state.Connected {
		m.mu.Unlock()
		return nil
	}
	if m.connectDone != nil {
		done := m.connectDone
		m.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.state.Connected {
			return nil
		}
		return m.connectErr
	}
	done := make(chan struct{})
	m.connectDone = done
	gen := m.gen
	m.mu.Unlock()

	m.setState(ConnectionState{Connecting: true})

	conn, err := m.broker.Dial(ctx, m)

	m.mu.Lock()
	if m.gen != gen { // Disconnect() raced the attempt; discard it
		m.connectDone = nil
		m.connectErr = ErrDisconnected
		close(done)
		m.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return ErrDisconnected
	}
	if err != nil {
		m.connectDone = nil
		m.connectErr = err
		close(done)
		m.mu.Unlock()
		m.setState(ConnectionState{LastError: err})
		return err
	}
	m.conn = conn
	topics := make([]string, 0, len(m.subs))
	for topic := range m.subs {
		topics = append(topics, topic)
	}
	m.mu.Unlock()

	// broker-side subscriptions do not survive a reconnect: restore the
	// whole registry before anything else sees Connected.
	for _, topic := range topics {
		if serr := conn.Subscribe(topic); serr != nil {
			m.logger.Warn(fmt.Sprintf("presence: resubscribe %q: %v", topic, serr), serr)
		}
	}
	m.flushQueue(conn)

	m.mu.Lock()
	if m.gen != gen { // Disconnect() raced the resubscribe window; discard the attempt
		m.connectDone = nil
		m.connectErr = ErrDisconnected
		close(done)
		m.mu.Unlock()
		_ = conn.Close()
		return ErrDisconnected
	}
	m.connectDone = nil
	m.connectErr = nil
	m.state = ConnectionState{Connected: true}
	fns := make([]StateListener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	close(done)
	m.mu.Unlock()

	for _, fn := range fns {
		fn(ConnectionState{Connected: true})
	}
	// a Publish racing the first flush may have enqueued after the drain;
	// the queue must be empty again once Connected is observable.
	m.flushQueue(conn)
	return nil
}

func (m *Manager) flushQueue(conn Conn) {
	m.mu.Lock()
	pending := m.queue.drain()
	m.mu.Unlock()

	for _, msg := range pending {
		if err := conn.Publish(msg.topic, msg.payload); err != nil {
			m.logger.Warn(fmt.Sprintf("presence: flushing queued message on %q: %v", msg.topic, err), err)
		}
	}
}

// Subscribe registers handler under topic and returns its disposer.
// Subscriptions are reference-counted: the first handler for a topic
// triggers a broker-level subscribe (when live), removing the last one
// triggers a broker-level unsubscribe and drops the topic.
func (m *Manager) Subscribe(topic string, handler MessageHandler) (unsubscribe func()) {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	handlers, ok := m.subs[topic]
	if !ok {
		handlers = make(map[int]MessageHandler)
		m.subs[topic] = handlers
	}
	first := len(handlers) == 0
	handlers[id] = handler
	conn := m.conn
	m.mu.Unlock()

	if first && conn != nil {
		if err := conn.Subscribe(topic); err != nil {
			m.logger.Warn(fmt.Sprintf("presence: subscribe %q: %v", topic, err), err)
		}
	}

	return func() { m.removeHandler(topic, id) }
}

func (m *Manager) removeHandler(topic string, id int) {
	m.mu.Lock()
	handlers, ok := m.subs[topic]
	if !ok {
		m.mu.Unlock()
		return
	}
	if _, ok = handlers[id]; !ok { // disposer already invoked
		m.mu.Unlock()
		return
	}
	delete(handlers, id)
	last := len(handlers) == 0
	if last {
		delete(m.subs, topic)
	}
	conn := m.conn
	m.mu.Unlock()

	if last && conn != nil {
		if err := conn.Unsubscribe(topic); err != nil {
			m.logger.Warn(fmt.Sprintf("presence: unsubscribe %q: %v", topic, err), err)
		}
	}
}

// Publish sends payload on topic, or queues it while disconnected. The
// queue is a fixed-capacity ring: when full the oldest entry is dropped.
func (m *Manager) Publish(topic string, payload []byte) error {
	m.mu.Lock()
	conn := m.conn
	connected := m.state.Connected
	if !connected || conn == nil {
		if dropped := m.queue.push(queuedMessage{topic: topic, payload: payload}); dropped {
			m.logger.Warn("presence: offline queue full, dropped oldest message")
		}
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()
	return conn.Publish(topic, payload)
}

// Disconnect tears down the physical connection and clears all
// registries; the manager is back in its initial state and a later
// Connect starts fresh.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.gen++
	conn := m.conn
	m.conn = nil
	m.subs = make(map[string]map[int]MessageHandler)
	m.listeners = make(map[int]StateListener)
	m.queue = newOfflineQueue(cap(m.queue.entries))
	m.state = ConnectionState{}
	m.mu.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			m.logger.Warn(fmt.Sprintf("presence: closing broker connection: %v", err), err)
		}
	}
}

// HandleMessage implements Receiver. Dispatch is serialized: every
// handler registered for the topic sees the message before the next one
// is processed, and a panicking handler does not starve the others.
func (m *Manager) HandleMessage(topic string, payload []byte) {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()

	m.mu.Lock()
	ids := make([]int, 0, len(m.subs[topic]))
	for id := range m.subs[topic] {
		ids = append(ids, id)
	}
	sort.Ints(ids) // registration order
	handlers := make([]MessageHandler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, m.subs[topic][id])
	}
	m.mu.Unlock()

	for _, handler := range handlers {
		m.dispatch(handler, topic, payload)
	}
}

func (m *Manager) dispatch(handler MessageHandler, topic string, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error(fmt.Sprintf("presence: handler panic on %q: %v", topic, r))
		}
	}()
	handler(topic, payload)
}

// HandleConnectionLost implements Receiver. The link is gone; report
// Offline and keep retrying in the background at the reconnect period
// until Connected or explicitly disconnected.
func (m *Manager) HandleConnectionLost(err error) {
	m.mu.Lock()
	if m.conn == nil { // already torn down
		m.mu.Unlock()
		return
	}
	conn := m.conn
	m.conn = nil
	gen := m.gen
	m.mu.Unlock()

	_ = conn.Close()
	m.logger.Warn(fmt.Sprintf("presence: broker connection lost: %v", err), err)
	m.setState(ConnectionState{LastError: err})

	go m.reconnectLoop(gen)
}

func (m *Manager) reconnectLoop(gen int) {
	for {
		time.Sleep(m.reconnectPeriod)

		m.mu.Lock()
		stale := m.gen != gen || m.state.Connected
		m.mu.Unlock()
		if stale {
			return
		}

		if err := m.Connect(context.Background()); err == nil {
			return
		} else if err == ErrDisconnected {
			return
		} else {
			m.logger.Warn(fmt.Sprintf("presence: reconnect attempt failed: %v", err), err)
		}
	}
}
