package rdx

import (
	"time"

	"styledecor/globals"

	"github.com/redis/go-redis/v9"
)

var Conn *redis.Client

// Init dials Redis. Callers degrade gracefully when Redis is down; it only
// backs caches and settlement locks, the store indexes stay authoritative.
func Init(addr, password string, db int) error {
	Conn = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return Conn.Ping(globals.Ctx).Err()
}

func Close() error {
	if Conn == nil {
		return nil
	}
	return Conn.Close()
}

func RdxGet(key string) (string, error) {
	return Conn.Get(globals.Ctx, key).Result()
}

func RdxSet(key, value string, ttl time.Duration) error {
	return Conn.Set(globals.Ctx, key, value, ttl).Err()
}

func RdxSetNX(key, value string, ttl time.Duration) (bool, error) {
	return Conn.SetNX(globals.Ctx, key, value, ttl).Result()
}

func RdxDel(key string) error {
	return Conn.Del(globals.Ctx, key).Err()
}
