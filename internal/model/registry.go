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

package model

import (
	"fmt"
	"sort"
	"sync"

	"car-identifier/internal/model/vision"
	"car-identifier/pkg/config"
	"car-identifier/pkg/log"
)

// VisionFactory 按配置与已解析的 API Key 创建 Identifier
type VisionFactory func(cfg config.VisionConfig, apiKey string, logger *log.Logger) (vision.Identifier, error)

// Registry 视觉提供商注册表，按 provider 名称解析工厂
var (
	visionRegistry = map[string]VisionFactory{
		"gemini": newGemini,
		"stub":   newStub,
	}
	// keylessProviders 不需要 API Key 的提供商
	keylessProviders = map[string]bool{"stub": true}
	registryMu       sync.RWMutex
)

// StubText provider "stub" 的固定回答
const StubText = "Make: Toyota\nModel: Corolla\nYear: 2020\nColor: White\nVehicle Type: Sedan\nLicense Plate: Not visible"

// NeedsAPIKey provider 是否需要 API Key；空名按 gemini
func NeedsAPIKey(name string) bool {
	if name == "" {
		name = "gemini"
	}
	registryMu.RLock()
	defer registryMu.RUnlock()
	return !keylessProviders[name]
}

// RegisterVision 注册 Vision 工厂（同名覆盖）
func RegisterVision(name string, f VisionFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	visionRegistry[name] = f
}

// GetVision 按名称获取 Vision 工厂
func GetVision(name string) (VisionFactory, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := visionRegistry[name]
	if !ok {
		return nil, fmt.Errorf("Vision not registered: %s", name)
	}
	return f, nil
}

// VisionProviders 返回已注册的提供商名称（有序）
func VisionProviders() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(visionRegistry))
	for name := range visionRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewIdentifier 创建带指标/追踪/日志的 Identifier；provider 为空时按 gemini
func NewIdentifier(cfg config.VisionConfig, apiKey string, logger *log.Logger) (vision.Identifier, error) {
	name := cfg.Provider
	if name == "" {
		name = "gemini"
	}
	f, err := GetVision(name)
	if err != nil {
		return nil, err
	}
	inner, err := f(cfg, apiKey, logger)
	if err != nil {
		return nil, fmt.Errorf("创建 %s 识别客户端失败: %w", name, err)
	}
	return vision.NewInstrumentedIdentifier(inner, logger), nil
}

func newGemini(cfg config.VisionConfig, apiKey string, logger *log.Logger) (vision.Identifier, error) {
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	return vision.NewGeminiClient(vision.GeminiOptions{
		APIKey:  apiKey,
		BaseURL: cfg.BaseURL,
		Timeout: timeout,
		Logger:  logger,
	})
}

func newStub(cfg config.VisionConfig, apiKey string, logger *log.Logger) (vision.Identifier, error) {
	return &vision.StubIdentifier{Text: StubText}, nil
}
