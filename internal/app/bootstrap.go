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

package app

import (
	"context"
	"fmt"

	"car-identifier/internal/model/vision"
	"car-identifier/pkg/config"
	"car-identifier/pkg/log"
	"car-identifier/pkg/secrets"
)

// Bootstrap 统一初始化：供 api 与 cli 复用，避免在 cmd 内写装配逻辑
type Bootstrap struct {
	Config     *config.Config
	Logger     *log.Logger
	Secrets    secrets.Store
	Identifier vision.Identifier
}

// NewBootstrap 根据配置创建 Bootstrap（日志 → Secret Store → API Key → Identifier）
func NewBootstrap(ctx context.Context, cfg *config.Config) (*Bootstrap, error) {
	if cfg == nil {
		var err error
		if cfg, err = config.LoadConfig(""); err != nil {
			return nil, err
		}
	}
	logger, err := log.NewLogger(&log.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	return NewBootstrapWithLogger(ctx, cfg, logger)
}

// NewBootstrapWithLogger 使用已有 logger 装配（cli 将日志写到 stderr 时使用）
func NewBootstrapWithLogger(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Bootstrap, error) {
	store, err := secrets.NewStore(secrets.Config{
		Provider: cfg.Secrets.Provider,
		Vault: secrets.VaultConfig{
			Address:    cfg.Secrets.Vault.Address,
			Token:      cfg.Secrets.Vault.Token,
			PathPrefix: cfg.Secrets.Vault.PathPrefix,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 Secret Store 失败: %w", err)
	}

	identifier, err := NewIdentifierFromConfig(ctx, cfg, store, logger)
	if err != nil {
		return nil, err
	}

	return &Bootstrap{
		Config:     cfg,
		Logger:     logger,
		Secrets:    store,
		Identifier: identifier,
	}, nil
}
