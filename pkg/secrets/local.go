// Copyright 2026 fanjia1024
// Process-local secret stores: environment variables and memory

package secrets

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

type envStore struct{}

// NewEnvStore 创建环境变量 secret store（容器注入 GEMINI_API_KEY 的默认方式）
func NewEnvStore() Store {
	return envStore{}
}

func (envStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("environment variable not set: %s", key)
	}
	return value, nil
}

func (envStore) Set(ctx context.Context, key string, value string) error {
	return os.Setenv(key, value)
}

func (envStore) Delete(ctx context.Context, key string) error {
	return os.Unsetenv(key)
}

func (envStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for _, env := range os.Environ() {
		name, _, _ := strings.Cut(env, "=")
		if strings.HasPrefix(name, prefix) {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

type memoryStore struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// NewMemoryStore 创建内存 secret store（测试与本地开发）
func NewMemoryStore() Store {
	return NewMemoryStoreFrom(nil)
}

// NewMemoryStoreFrom 以 initial 的副本初始化内存 store
func NewMemoryStoreFrom(initial map[string]string) Store {
	m := &memoryStore{secrets: make(map[string]string, len(initial))}
	for k, v := range initial {
		m.secrets[k] = v
	}
	return m
}

func (m *memoryStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.secrets[key]
	if !ok {
		return "", fmt.Errorf("secret not found: %s", key)
	}
	return value, nil
}

func (m *memoryStore) Set(ctx context.Context, key string, value string) error {
	m.mu.Lock()
	m.secrets[key] = value
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.secrets, key)
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for key := range m.secrets {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
