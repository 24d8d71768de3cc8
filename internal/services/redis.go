package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// InitRedis initializes the Redis client
func InitRedis() error {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://redis:6379" // Default Redis address for Docker
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	RedisClient = redis.NewClient(opt)

	// Test the connection
	ctx := context.Background()
	_, err = RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return nil
}

// SetRentalState caches the current lifecycle state of a rental
func SetRentalState(ctx context.Context, rentalID uint, state string) error {
	if RedisClient == nil {
		return nil
	}
	key := fmt.Sprintf("rental:state:%d", rentalID)
	return RedisClient.Set(ctx, key, state, time.Hour).Err()
}

// GetRentalState retrieves the cached lifecycle state of a rental
func GetRentalState(ctx context.Context, rentalID uint) (string, error) {
	if RedisClient == nil {
		return "", redis.Nil
	}
	key := fmt.Sprintf("rental:state:%d", rentalID)
	return RedisClient.Get(ctx, key).Result()
}

// PublishRentalUpdate publishes a rental lifecycle update to Redis pub/sub
func PublishRentalUpdate(ctx context.Context, rentalID uint, state string, data map[string]interface{}) error {
	if RedisClient == nil {
		return nil
	}
	updateData := map[string]interface{}{
		"rentalId":  rentalID,
		"state":     state,
		"data":      data,
		"timestamp": time.Now().Unix(),
	}

	jsonData, err := json.Marshal(updateData)
	if err != nil {
		return err
	}

	return RedisClient.Publish(ctx, "rental:updates", jsonData).Err()
}

// PublishHandoverUpdate publishes a handover agreement update to Redis pub/sub
func PublishHandoverUpdate(ctx context.Context, handoverID, rentalID uint, event string) error {
	if RedisClient == nil {
		return nil
	}
	updateData := map[string]interface{}{
		"handoverId": handoverID,
		"rentalId":   rentalID,
		"event":      event,
		"timestamp":  time.Now().Unix(),
	}

	jsonData, err := json.Marshal(updateData)
	if err != nil {
		return err
	}

	return RedisClient.Publish(ctx, "handover:updates", jsonData).Err()
}
