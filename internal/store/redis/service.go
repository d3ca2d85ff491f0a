package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/dispenser/internal/logger"
	"github.com/MrSnakeDoc/dispenser/internal/store"
)

var _ store.Backend = (*Store)(nil)

// Store keeps prompt lists, cooldown slots and settings in Redis
type Store struct {
	client *redis.Client
	log    logger.Logger
}

// NewStore creates a new Redis store. A nil log discards store warnings.
func NewStore(client *redis.Client, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNop()
	}
	return &Store{
		client: client,
		log:    log,
	}
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}
