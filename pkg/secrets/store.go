// Copyright 2026 fanjia1024
// Secret management abstraction

package secrets

import (
	"context"
	"fmt"
	"strings"
)

// DefaultAPIKeyName store 中 Gemini API Key 的默认键名
const DefaultAPIKeyName = "GEMINI_API_KEY"

// Store Secret 存储接口
type Store interface {
	// Get 获取 secret 值
	Get(ctx context.Context, key string) (string, error)

	// Set 设置 secret 值
	Set(ctx context.Context, key string, value string) error

	// Delete 删除 secret
	Delete(ctx context.Context, key string) error

	// List 列出所有 secret keys
	List(ctx context.Context, prefix string) ([]string, error)
}

// Config Secret Store 配置
type Config struct {
	Provider string      // vault | env | memory
	Vault    VaultConfig // provider=vault 时使用
}

// NewStore 创建 Secret Store
func NewStore(config Config) (Store, error) {
	switch config.Provider {
	case "memory":
		return NewMemoryStore(), nil
	case "env", "":
		return NewEnvStore(), nil
	case "vault":
		return NewVaultStore(config.Vault)
	default:
		return nil, fmt.Errorf("unsupported secret provider: %s", config.Provider)
	}
}

// ResolveAPIKey 优先使用配置中的明文值，否则从 store 读取 name（空则 DefaultAPIKeyName）
func ResolveAPIKey(ctx context.Context, configured string, store Store, name string) (string, error) {
	if v := strings.TrimSpace(configured); v != "" {
		return v, nil
	}
	if store == nil {
		return "", fmt.Errorf("api key not configured and no secret store available")
	}
	if name == "" {
		name = DefaultAPIKeyName
	}
	v, err := store.Get(ctx, name)
	if err != nil {
		return "", fmt.Errorf("resolve api key %s: %w", name, err)
	}
	return strings.TrimSpace(v), nil
}
