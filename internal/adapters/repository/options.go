package repository

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOption applies a configuration option to the Redis client.
type RedisOption func(*redis.Options)

// WithRedisAddr sets the server address.
func WithRedisAddr(addr string) RedisOption {
	return func(o *redis.Options) {
		if addr != "" {
			o.Addr = addr
		}
	}
}

// WithRedisAuth sets the password.
func WithRedisAuth(password string) RedisOption {
	return func(o *redis.Options) { o.Password = password }
}

// WithRedisDB selects the logical database.
func WithRedisDB(db int) RedisOption {
	return func(o *redis.Options) {
		if db >= 0 {
			o.DB = db
		}
	}
}

// WithRedisDialTimeout bounds connecting and the initial ping.
func WithRedisDialTimeout(d time.Duration) RedisOption {
	return func(o *redis.Options) {
		if d > 0 {
			o.DialTimeout = d
		}
	}
}
