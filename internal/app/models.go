package app

import (
	"context"
	"fmt"

	"car-identifier/internal/model"
	"car-identifier/internal/model/vision"
	"car-identifier/pkg/config"
	"car-identifier/pkg/log"
	"car-identifier/pkg/secrets"
)

// NewIdentifierFromConfig 解析 API Key（配置明文优先，其次 secrets.key）并按 model.vision.provider 创建 Identifier；
// stub 等无需 Key 的提供商跳过解析
func NewIdentifierFromConfig(ctx context.Context, cfg *config.Config, store secrets.Store, logger *log.Logger) (vision.Identifier, error) {
	vc := cfg.Model.Vision
	if !model.NeedsAPIKey(vc.Provider) {
		return model.NewIdentifier(vc, "", logger)
	}
	apiKey, err := secrets.ResolveAPIKey(ctx, vc.APIKey, store, cfg.Secrets.Key)
	if err != nil {
		return nil, fmt.Errorf("Vision provider %q 的 api_key 未配置: %w", providerName(vc.Provider), err)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("Vision provider %q 的 api_key 未配置", providerName(vc.Provider))
	}
	return model.NewIdentifier(vc, apiKey, logger)
}

func providerName(p string) string {
	if p == "" {
		return "gemini"
	}
	return p
}
