package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ivansugi/enketo-express-oc/internal/domain/survey"
)

// Hash fields of an OpenRosa form record.
const (
	fieldServer = "openRosaServer"
	fieldFormID = "openRosaId"
	fieldActive = "active"
)

// RedisStore keeps surveys in Redis using two keys per survey:
// "id:<enketoID>" holds the form key "or:<server>/<formID>", and that key is
// a hash with the server, form id and active flag.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, opts ...RedisOption) (*RedisStore, error) {
	ro := &redis.Options{
		Addr:        "127.0.0.1:6379",
		DialTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(ro)
	}

	client := redis.NewClient(ro)

	pingCtx, cancel := context.WithTimeout(ctx, ro.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", ro.Addr, err)
	}
	return &RedisStore{client: client}, nil
}

func idKey(enketoID string) string { return "id:" + enketoID }

// Get implements Store. A record without an active field counts as active.
func (r *RedisStore) Get(ctx context.Context, enketoID string) (*survey.Survey, error) {
	orKey, err := r.client.Get(ctx, idKey(enketoID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", survey.ErrNotFound, enketoID)
	}
	if err != nil {
		return nil, fmt.Errorf("get survey key %s: %w", enketoID, err)
	}

	fields, err := r.client.HGetAll(ctx, orKey).Result()
	if err != nil {
		return nil, fmt.Errorf("get survey %s: %w", enketoID, err)
	}
	if fields[fieldServer] == "" || fields[fieldFormID] == "" {
		return nil, fmt.Errorf("%w: %s", survey.ErrNotFound, enketoID)
	}

	rec := survey.Survey{
		EnketoID:       enketoID,
		OpenRosaServer: fields[fieldServer],
		OpenRosaID:     fields[fieldFormID],
		Active:         true,
	}
	if v, ok := fields[fieldActive]; ok {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("survey %s: bad active flag %q: %w", enketoID, v, err)
		}
		rec.Active = active
	}
	return checkActive(&rec)
}

// Put implements Store. Both keys are written in one transaction.
func (r *RedisStore) Put(ctx context.Context, rec *survey.Survey) error {
	if err := validate(rec); err != nil {
		return err
	}

	orKey := rec.OpenRosaKey()
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, idKey(rec.EnketoID), orKey, 0)
		pipe.HSet(ctx, orKey,
			fieldServer, rec.OpenRosaServer,
			fieldFormID, rec.OpenRosaID,
			fieldActive, strconv.FormatBool(rec.Active),
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("put survey %s: %w", rec.EnketoID, err)
	}
	return nil
}

// Close implements Store.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
