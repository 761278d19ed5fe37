package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/autoumpire/internal/model"
	"github.com/mcoot/autoumpire/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultConfig().KeyPrefix
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Assassin operations

func (s *Storage) SaveAssassin(ctx context.Context, assassin *model.Assassin) error {
	data, err := json.Marshal(assassin)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, assassinKey(s.cfg.KeyPrefix, assassin.Identifier()), data, 0)
	pipe.SAdd(ctx, assassinsIndexKey(s.cfg.KeyPrefix), assassin.Identifier())
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetAssassin(ctx context.Context, identifier string) (*model.Assassin, error) {
	data, err := s.client.Get(ctx, assassinKey(s.cfg.KeyPrefix, identifier)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAssassinNotFound
		}
		return nil, err
	}

	var assassin model.Assassin
	if err := json.Unmarshal(data, &assassin); err != nil {
		return nil, err
	}
	return &assassin, nil
}

func (s *Storage) ListAssassins(ctx context.Context) ([]*model.Assassin, error) {
	ids, err := s.client.SMembers(ctx, assassinsIndexKey(s.cfg.KeyPrefix)).Result()
	if err != nil {
		return nil, err
	}

	assassins := make([]*model.Assassin, 0, len(ids))
	for _, id := range ids {
		assassin, err := s.GetAssassin(ctx, id)
		if err != nil {
			if errors.Is(err, model.ErrAssassinNotFound) {
				continue
			}
			return nil, err
		}
		assassins = append(assassins, assassin)
	}
	return assassins, nil
}

// Event operations

func (s *Storage) SaveEvent(ctx context.Context, event *model.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, eventKey(s.cfg.KeyPrefix, event.Identifier()), data, 0)
	pipe.SAdd(ctx, eventsIndexKey(s.cfg.KeyPrefix), event.Identifier())
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetEvent(ctx context.Context, identifier string) (*model.Event, error) {
	data, err := s.client.Get(ctx, eventKey(s.cfg.KeyPrefix, identifier)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrEventNotFound
		}
		return nil, err
	}

	var event model.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *Storage) DeleteEvent(ctx context.Context, identifier string) error {
	removed, err := s.client.Del(ctx, eventKey(s.cfg.KeyPrefix, identifier)).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return model.ErrEventNotFound
	}
	return s.client.SRem(ctx, eventsIndexKey(s.cfg.KeyPrefix), identifier).Err()
}

func (s *Storage) ListEvents(ctx context.Context) ([]*model.Event, error) {
	ids, err := s.client.SMembers(ctx, eventsIndexKey(s.cfg.KeyPrefix)).Result()
	if err != nil {
		return nil, err
	}

	events := make([]*model.Event, 0, len(ids))
	for _, id := range ids {
		event, err := s.GetEvent(ctx, id)
		if err != nil {
			if errors.Is(err, model.ErrEventNotFound) {
				continue
			}
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

// Generic state operations

// The secret id counter lives in its own key so NextUniqueID can use INCR;
// the stored document's uniqueId is overwritten with it on read.

func (s *Storage) GetGenericState(ctx context.Context) (*model.GenericState, error) {
	state := model.NewGenericState()
	data, err := s.client.Get(ctx, genericStateKey(s.cfg.KeyPrefix)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(data, state); err != nil {
			return nil, err
		}
	}

	counter, err := s.client.Get(ctx, uniqueIDKey(s.cfg.KeyPrefix)).Result()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return nil, err
	default:
		n, err := strconv.Atoi(counter)
		if err != nil {
			return nil, err
		}
		state.UniqueID = n
	}
	return state, nil
}

func (s *Storage) SaveGenericState(ctx context.Context, state *model.GenericState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, genericStateKey(s.cfg.KeyPrefix), data, 0)
	pipe.Set(ctx, uniqueIDKey(s.cfg.KeyPrefix), state.UniqueID, 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) NextUniqueID(ctx context.Context) (string, error) {
	next, err := s.client.Incr(ctx, uniqueIDKey(s.cfg.KeyPrefix)).Result()
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(next-1, 10), nil
}
