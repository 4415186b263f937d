package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/kazi/core/payroll"
)

// Connect initializes a Redis client from URL or host:port input.
// Supporting both formats keeps local/dev and container config paths simple.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, errors.Wrap(err, "parsing redis url")
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

// RedisStatusStore is the local payroll-status cache tier, backed by a
// Redis hash per employee.
type RedisStatusStore struct {
	client *redis.Client
}

var _ payroll.StatusStore = (*RedisStatusStore)(nil) // interface compliance check

func NewRedisStatusStore(client *redis.Client) *RedisStatusStore {
	return &RedisStatusStore{client: client}
}

func statusCacheKey(employeeID int) string {
	return fmt.Sprintf("payroll:status:%d", employeeID)
}

func (s *RedisStatusStore) GetStatus(ctx context.Context, employeeID int, month string) (payroll.StatusEntry, error) {
	state, err := s.client.HGet(ctx, statusCacheKey(employeeID), month).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return payroll.StatusEntry{}, payroll.ErrNotFound
		}
		return payroll.StatusEntry{}, errors.Wrap(err, "getting cached payroll status")
	}
	return payroll.StatusEntry{
		EmployeeID: employeeID,
		Month:      month,
		State:      payroll.State(state),
	}, nil
}

func (s *RedisStatusStore) SetStatus(ctx context.Context, entry payroll.StatusEntry) error {
	err := s.client.HSet(ctx, statusCacheKey(entry.EmployeeID), entry.Month, string(entry.State)).Err()
	return errors.Wrap(err, "caching payroll status")
}
