// Copyright 2026 fanjia1024
// 环境变量 secret store

package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

type envStore struct{}

// NewEnvStore 创建环境变量 secret store
func NewEnvStore() Store {
	return &envStore{}
}

// Get 读取环境变量；key 未命中时尝试全大写形式（secret://model_api_key → MODEL_API_KEY）
func (e *envStore) Get(ctx context.Context, key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	upper := strings.ToUpper(key)
	if upper != key {
		if value := os.Getenv(upper); value != "" {
			return value, nil
		}
	}
	return "", fmt.Errorf("environment variable not set: %s", key)
}

func (e *envStore) Set(ctx context.Context, key string, value string) error {
	return os.Setenv(key, value)
}

func (e *envStore) Delete(ctx context.Context, key string) error {
	return os.Unsetenv(key)
}

func (e *envStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for _, env := range os.Environ() {
		name, _, ok := strings.Cut(env, "=")
		if ok && strings.HasPrefix(name, prefix) {
			keys = append(keys, name)
		}
	}
	return keys, nil
}
