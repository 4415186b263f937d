package brokersvc

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/kazi/core/presence"
)

// RedisBroker dials presence connections over Redis pub/sub.
type RedisBroker struct {
	client *redis.Client
}

var _ presence.Broker = (*RedisBroker)(nil) // interface compliance check

func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

func (b *RedisBroker) Dial(ctx context.Context, r presence.Receiver) (presence.Conn, error) {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "dialing broker")
	}

	// subscriber connection; topics are added via Conn.Subscribe
	pubsub := b.client.Subscribe(ctx)
	conn := &redisConn{
		client: b.client,
		pubsub: pubsub,
		recv:   r,
		done:   make(chan struct{}),
	}
	go conn.readLoop()
	return conn, nil
}

type redisConn struct {
	client *redis.Client
	pubsub *redis.PubSub
	recv   presence.Receiver
	done   chan struct{}
	once   sync.Once
}

var _ presence.Conn = (*redisConn)(nil) // interface compliance check

func (c *redisConn) Subscribe(topic string) error {
	return c.pubsub.Subscribe(context.Background(), topic)
}

func (c *redisConn) Unsubscribe(topic string) error {
	return c.pubsub.Unsubscribe(context.Background(), topic)
}

func (c *redisConn) Publish(topic string, payload []byte) error {
	return c.client.Publish(context.Background(), topic, payload).Err()
}

func (c *redisConn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.pubsub.Close()
	})
	return err
}

// readLoop pumps inbound messages to the receiver until the connection
// closes or dies. A receive error after an explicit Close is expected
// and not reported as a lost connection.
func (c *redisConn) readLoop() {
	ctx := context.Background()
	for {
		msg, err := c.pubsub.ReceiveMessage(ctx)
		if err != nil {
			select {
			case <-c.done:
				return
			default:
				c.recv.HandleConnectionLost(err)
				return
			}
		}
		c.recv.HandleMessage(msg.Channel, []byte(msg.Payload))
	}
}
