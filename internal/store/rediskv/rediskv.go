package rediskv

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/wonny/imi/pkg/redis"
)

// KV is a store.KV backed by plain Redis string keys under "<prefix>:kv:"
type KV struct {
	client *redis.Client
	prefix string
}

// New wraps an enabled client
func New(client *redis.Client, prefix string) (*KV, error) {
	if !client.Enabled() {
		return nil, fmt.Errorf("redis kv requires an enabled redis client")
	}
	return &KV{client: client, prefix: prefix}, nil
}

func (k *KV) key(key string) string {
	return fmt.Sprintf("%s:kv:%s", k.prefix, key)
}

// Get implements store.KV
func (k *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := k.client.Redis().Get(ctx, k.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

// Set implements store.KV. Collections never expire.
func (k *KV) Set(ctx context.Context, key string, value []byte) error {
	if err := k.client.Redis().Set(ctx, k.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close implements store.KV; the shared client is closed by its owner
func (k *KV) Close() error {
	return nil
}
