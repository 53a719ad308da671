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

package vision

import (
	"context"
	"sync"
)

// Identifier 车辆识别接口：输入 base64 JPEG，返回模型原始文本或 *errors.Error
type Identifier interface {
	// Identify 发起一次识别；不重试，不解析文本
	Identify(ctx context.Context, image string) (string, error)
	// Name 返回提供商名称
	Name() string
}

// StubIdentifier 固定返回 Text / Err，不发起网络请求；
// 注册为 provider "stub"，供无 API Key 的本地联调，测试中也直接构造
type StubIdentifier struct {
	Text  string
	Err   error
	Calls int

	mu sync.Mutex
}

// Identify 返回预设结果
func (s *StubIdentifier) Identify(ctx context.Context, image string) (string, error) {
	s.mu.Lock()
	s.Calls++
	s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	return s.Text, nil
}

// Name 返回 "stub"
func (s *StubIdentifier) Name() string {
	return "stub"
}

type requestIDKey struct{}

// WithRequestID 将请求 ID 放入 ctx，供日志与 span 关联
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom 读取 ctx 中的请求 ID，不存在时返回空串
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
