// Package cache holds the redis-backed response cache for product listing
// queries. The cache is eventually stale and never authoritative: every
// stock-affecting event bumps the generation key, orphaning old entries.
package cache

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var rdb *redis.Client

const (
	genKey  = "products:list:gen"
	listTTL = 5 * time.Minute
)

// Init connects to redis if REDIS_ADDR is set. Without it every cache call
// is a no-op and product listings always hit the database.
func Init() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		log.Println("REDIS_ADDR not set, product list cache disabled")
		return
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis unavailable, product list cache disabled: %v", err)
		return
	}
	rdb = client
	log.Printf("product list cache connected to %s", addr)
}

func listKey(ctx context.Context, query string) (string, error) {
	gen, err := rdb.Get(ctx, genKey).Int64()
	if err != nil && err != redis.Nil {
		return "", err
	}
	return fmt.Sprintf("products:list:g%d:%s", gen, query), nil
}

// GetProductList returns the cached JSON payload for a listing query.
func GetProductList(ctx context.Context, query string) (string, bool) {
	if rdb == nil {
		return "", false
	}
	key, err := listKey(ctx, query)
	if err != nil {
		return "", false
	}
	payload, err := rdb.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return payload, true
}

// SetProductList stores the JSON payload for a listing query, best effort.
func SetProductList(ctx context.Context, query, payload string) {
	if rdb == nil {
		return
	}
	key, err := listKey(ctx, query)
	if err != nil {
		return
	}
	if err := rdb.Set(ctx, key, payload, listTTL).Err(); err != nil {
		log.Printf("cache set failed: %v", err)
	}
}

// InvalidateProducts must be called after any stock- or catalog-affecting
// write (order creation, cancellation, product edits). Best effort.
func InvalidateProducts(ctx context.Context) {
	if rdb == nil {
		return
	}
	if err := rdb.Incr(ctx, genKey).Err(); err != nil {
		log.Printf("cache invalidation failed: %v", err)
	}
}
