package memory

import (
	"context"
	"strings"
)

// NewStorage picks postgres when a database URL is configured, a directory of
// files when dir is set, and process memory otherwise.
func NewStorage(ctx context.Context, databaseURL, dir string) (Storage, error) {
	if strings.TrimSpace(databaseURL) != "" {
		return NewPostgresStorage(ctx, databaseURL)
	}
	if strings.TrimSpace(dir) != "" {
		return NewFileStorage(dir)
	}
	return NewInMemoryStorage(), nil
}
