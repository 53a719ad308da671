// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package secrets

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	vault "github.com/hashicorp/vault/api"

	"car-identifier/pkg/errors"
)

// VaultConfig Vault 配置；未设置 Address/Token 时沿用 VAULT_ADDR / VAULT_TOKEN
type VaultConfig struct {
	Address    string
	Token      string
	PathPrefix string // 挂载路径前缀，默认 "secret"
}

const vaultHealthTimeout = 5 * time.Second

type vaultStore struct {
	logical *vault.Logical
	prefix  string
}

// NewVaultStore 创建 Vault secret store，创建时探测一次 sys/health
func NewVaultStore(config VaultConfig) (Store, error) {
	cfg := vault.DefaultConfig()
	if config.Address != "" {
		cfg.Address = config.Address
	}
	client, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}
	if config.Token != "" {
		client.SetToken(config.Token)
	}

	ctx, cancel := context.WithTimeout(context.Background(), vaultHealthTimeout)
	defer cancel()
	if _, err := client.Sys().HealthWithContext(ctx); err != nil {
		return nil, fmt.Errorf("connect to vault %s: %w", cfg.Address, err)
	}

	prefix := strings.Trim(config.PathPrefix, "/")
	if prefix == "" {
		prefix = "secret"
	}
	return &vaultStore{logical: client.Logical(), prefix: prefix}, nil
}

func (v *vaultStore) Get(ctx context.Context, key string) (string, error) {
	secret, err := v.logical.ReadWithContext(ctx, v.path(key))
	if err != nil {
		return "", fmt.Errorf("read %s from vault: %w", key, err)
	}
	if secret == nil {
		return "", errors.Wrapf(errors.ErrNotFound, "vault secret %s", key)
	}
	val, ok := secretValue(secret.Data)
	if !ok {
		return "", errors.Wrapf(errors.ErrNotFound, "vault secret %s has no string value", key)
	}
	return val, nil
}

func (v *vaultStore) Set(ctx context.Context, key string, value string) error {
	if _, err := v.logical.WriteWithContext(ctx, v.path(key), map[string]interface{}{"value": value}); err != nil {
		return fmt.Errorf("write %s to vault: %w", key, err)
	}
	return nil
}

func (v *vaultStore) Delete(ctx context.Context, key string) error {
	if _, err := v.logical.DeleteWithContext(ctx, v.path(key)); err != nil {
		return fmt.Errorf("delete %s from vault: %w", key, err)
	}
	return nil
}

// List 列出前缀下的键名（LIST 语义，子目录以 "/" 结尾）
func (v *vaultStore) List(ctx context.Context, prefix string) ([]string, error) {
	secret, err := v.logical.ListWithContext(ctx, v.path(prefix))
	if err != nil {
		return nil, fmt.Errorf("list vault %s: %w", prefix, err)
	}
	if secret == nil {
		return nil, nil
	}
	raw, _ := secret.Data["keys"].([]interface{})
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		if s, ok := k.(string); ok {
			keys = append(keys, path.Join(prefix, s))
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (v *vaultStore) path(key string) string {
	return path.Join(v.prefix, key)
}

// secretValue 取 "value" 键；KV v2 的值嵌套在 data 下；都没有时退回第一个字符串值
func secretValue(data map[string]interface{}) (string, bool) {
	if nested, ok := data["data"].(map[string]interface{}); ok {
		if val, ok := secretValue(nested); ok {
			return val, true
		}
	}
	if val, ok := data["value"].(string); ok {
		return val, true
	}
	for _, val := range data {
		if str, ok := val.(string); ok {
			return str, true
		}
	}
	return "", false
}
