package data

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	noncePrefix = "nonce:"
	streamVotes = "carbon.votes"
)

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

func SetNonce(ctx context.Context, rdb *redis.Client, addr, nonce string) error {
	return rdb.Set(ctx, noncePrefix+addr, nonce, 5*time.Minute).Err()
}

func GetAndDelNonce(ctx context.Context, rdb *redis.Client, addr string) (string, error) {
	return rdb.GetDel(ctx, noncePrefix+addr).Result()
}

// PublishVote appends a settled vote to the announcement stream consumed by
// the notifier and any external dashboards.
func PublishVote(ctx context.Context, rdb *redis.Client, payload map[string]interface{}) error {
	_, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamVotes,
		Values: payload,
	}).Result()
	return err
}
