package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/resource-gateway/internal/domain"
)

// QueryLogResource exposes the most recent audit entries kept in Redis as a
// JSON array, newest first.
type QueryLogResource struct {
	client *redis.Client
	key    string
	limit  int64
	desc   domain.ResourceDescriptor
}

// NewQueryLogResource builds the resource over the given Redis list.
func NewQueryLogResource(client *redis.Client, key string, limit int64) *QueryLogResource {
	return &QueryLogResource{
		client: client,
		key:    key,
		limit:  limit,
		desc: domain.ResourceDescriptor{
			Name:        "audit log",
			URI:         "logs://audit/recent",
			Description: fmt.Sprintf("most recent %d authentication and read events", limit),
			MimeType:    "application/json",
		},
	}
}

// Describe returns the resource descriptor.
func (q *QueryLogResource) Describe() domain.ResourceDescriptor {
	return q.desc
}

// Read returns the stored entries. Each list element is already a JSON
// object, so joining them yields a valid JSON array.
func (q *QueryLogResource) Read(ctx context.Context, _ string) (string, error) {
	entries, err := q.client.LRange(ctx, q.key, 0, q.limit-1).Result()
	if err != nil {
		return "", fmt.Errorf("read audit log: %w", err)
	}
	return "[" + strings.Join(entries, ",") + "]", nil
}
