package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noblesavage/site/internal/model"
)

const (
	customerKeyPrefix = "customer:"

	// DefaultCustomerTTL is how long an intake stays cached after a write or read-through.
	DefaultCustomerTTL = 24 * time.Hour
)

// ErrCacheMiss is returned when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

// GetIntake retrieves a cached intake by customer identifier.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetIntake(ctx context.Context, customerID string) (*model.Intake, error) {
	data, err := c.client.Get(ctx, customerKey(customerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var intake model.Intake
	if err := json.Unmarshal(data, &intake); err != nil {
		// Corrupt entries are dropped so the next read goes to the database.
		c.client.Del(ctx, customerKey(customerID))
		return nil, ErrCacheMiss
	}

	return &intake, nil
}

// SetIntake caches an intake under its customer identifier.
func (c *Cache) SetIntake(ctx context.Context, intake *model.Intake) error {
	data, err := json.Marshal(intake)
	if err != nil {
		return fmt.Errorf("failed to encode intake: %w", err)
	}

	if err := c.client.Set(ctx, customerKey(intake.ID), data, DefaultCustomerTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache intake: %w", err)
	}

	return nil
}

// DeleteIntake removes a cached intake.
func (c *Cache) DeleteIntake(ctx context.Context, customerID string) error {
	if err := c.client.Del(ctx, customerKey(customerID)).Err(); err != nil {
		return fmt.Errorf("failed to delete intake from cache: %w", err)
	}
	return nil
}

func customerKey(customerID string) string {
	return customerKeyPrefix + customerID
}
