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

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置结构体
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Model      ModelConfig      `mapstructure:"model"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
	Log        LogConfig        `mapstructure:"log"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// APIConfig API 服务配置
type APIConfig struct {
	Port         int             `mapstructure:"port"`
	Host         string          `mapstructure:"host"`
	MaxBodyBytes int             `mapstructure:"max_body_bytes"` // 上传图片最大字节数
	CORS         CORSConfig      `mapstructure:"cors"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	Enable       bool     `mapstructure:"enable"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// RateLimitConfig 入站限流（保护本服务与上游配额；不是重试策略）
type RateLimitConfig struct {
	Enable bool    `mapstructure:"enable"`
	RPS    float64 `mapstructure:"rps"`
	Burst  int     `mapstructure:"burst"`
}

// ModelConfig 模型配置
type ModelConfig struct {
	Vision VisionConfig `mapstructure:"vision"`
}

// VisionConfig 视觉模型配置；model 与 endpoint 为固定常量，base_url 仅供测试或代理覆盖
type VisionConfig struct {
	Provider string `mapstructure:"provider"` // 注册表中的提供商名，默认 gemini
	APIKey   string `mapstructure:"api_key"`  // 支持 ${ENV} 占位
	BaseURL  string `mapstructure:"base_url"`
	Timeout  string `mapstructure:"timeout"` // 空或 0 表示沿用传输层默认
}

// SecretsConfig API Key 的来源
type SecretsConfig struct {
	Provider string      `mapstructure:"provider"` // env | memory | vault
	Key      string      `mapstructure:"key"`      // store 内的键名，默认 GEMINI_API_KEY
	Vault    VaultConfig `mapstructure:"vault"`
}

// VaultConfig Vault 连接配置
type VaultConfig struct {
	Address    string `mapstructure:"address"`
	Token      string `mapstructure:"token"`
	PathPrefix string `mapstructure:"path_prefix"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// MonitoringConfig 监控配置
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// TracingConfig 链路追踪配置（OpenTelemetry）
type TracingConfig struct {
	Enable         bool   `mapstructure:"enable"`
	ServiceName    string `mapstructure:"service_name"`
	ExportEndpoint string `mapstructure:"export_endpoint"`
	Insecure       bool   `mapstructure:"insecure"`
}

// PrometheusConfig Prometheus 配置；开启时在 API 端口暴露 /metrics
type PrometheusConfig struct {
	Enable bool `mapstructure:"enable"`
}

// Default 返回无配置文件时的默认配置
func Default() *Config {
	return &Config{
		API: APIConfig{
			Port:         8080,
			MaxBodyBytes: 10 << 20,
			CORS:         CORSConfig{Enable: true, AllowOrigins: []string{"*"}},
			RateLimit:    RateLimitConfig{Enable: true, RPS: 5, Burst: 10},
		},
		Model: ModelConfig{
			Vision: VisionConfig{Provider: "gemini", APIKey: "${GEMINI_API_KEY}"},
		},
		Secrets: SecretsConfig{Provider: "env", Key: "GEMINI_API_KEY"},
		Log:     LogConfig{Level: "info", Format: "json"},
		Monitoring: MonitoringConfig{
			Prometheus: PrometheusConfig{Enable: true},
			Tracing:    TracingConfig{ServiceName: "car-identifier"},
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("api.port", d.API.Port)
	v.SetDefault("api.max_body_bytes", d.API.MaxBodyBytes)
	v.SetDefault("api.cors.enable", d.API.CORS.Enable)
	v.SetDefault("api.cors.allow_origins", d.API.CORS.AllowOrigins)
	v.SetDefault("api.rate_limit.enable", d.API.RateLimit.Enable)
	v.SetDefault("api.rate_limit.rps", d.API.RateLimit.RPS)
	v.SetDefault("api.rate_limit.burst", d.API.RateLimit.Burst)
	v.SetDefault("model.vision.provider", d.Model.Vision.Provider)
	v.SetDefault("model.vision.api_key", d.Model.Vision.APIKey)
	v.SetDefault("model.vision.base_url", "")
	v.SetDefault("model.vision.timeout", "")
	v.SetDefault("secrets.provider", d.Secrets.Provider)
	v.SetDefault("secrets.key", d.Secrets.Key)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("monitoring.prometheus.enable", d.Monitoring.Prometheus.Enable)
	v.SetDefault("monitoring.tracing.service_name", d.Monitoring.Tracing.ServiceName)
}

// LoadConfig 加载配置文件；configPath 为空时仅使用默认值与环境变量
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("无法读取配置文件: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("无法解析配置文件: %w", err)
	}

	replaceEnvVars(&config)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// replaceEnvVars 替换 ${VAR} 形式的 API Key；变量缺失时置空，交由 secrets 兜底
func replaceEnvVars(config *Config) {
	key := config.Model.Vision.APIKey
	if strings.HasPrefix(key, "$") {
		envVar := strings.TrimPrefix(strings.TrimSuffix(key, "}"), "${")
		config.Model.Vision.APIKey = os.Getenv(envVar)
	}
}

// Validate 校验配置中可静态检查的字段
func (c *Config) Validate() error {
	if _, err := c.Model.Vision.TimeoutDuration(); err != nil {
		return err
	}
	if c.API.RateLimit.Enable && c.API.RateLimit.RPS <= 0 {
		return fmt.Errorf("api.rate_limit.rps 必须大于 0")
	}
	return nil
}

// TimeoutDuration 解析 timeout；空串返回 0
func (v VisionConfig) TimeoutDuration() (time.Duration, error) {
	if v.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v.Timeout)
	if err != nil {
		return 0, fmt.Errorf("无效的 model.vision.timeout %q: %w", v.Timeout, err)
	}
	return d, nil
}

// Addr 返回监听地址，如 ":8080"
func (a APIConfig) Addr() string {
	port := a.Port
	if port <= 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", a.Host, port)
}

// LoadAPIConfig 加载 API 配置：CAR_IDENTIFIER_CONFIG 指定路径，否则尝试 configs/api.yaml，不存在时回退默认
func LoadAPIConfig() (*Config, error) {
	path := os.Getenv("CAR_IDENTIFIER_CONFIG")
	if path == "" {
		if _, err := os.Stat("configs/api.yaml"); err == nil {
			path = "configs/api.yaml"
		}
	}
	return LoadConfig(path)
}
