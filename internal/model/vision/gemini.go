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
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"car-identifier/pkg/errors"
	"car-identifier/pkg/log"
)

const (
	// DefaultGeminiBaseURL Gemini REST 根地址
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	// GeminiModel 固定模型
	GeminiModel = "gemini-2.0-flash"
	// ImageMIMEType inline_data 的固定类型
	ImageMIMEType = "image/jpeg"
)

// 各失败类别的提示文案
const (
	msgInvalidInput      = "Invalid image data: Image is empty or undefined"
	msgBadRequest        = "Invalid request to Gemini API: The image may be too large or in an unsupported format"
	msgUnauthorized      = "Authentication error: Invalid API key"
	msgRateLimited       = "Rate limit exceeded: Too many requests to Gemini API"
	msgNetworkError      = "Network error: No response from Gemini API. Check your internet connection"
	msgMalformedResponse = "Invalid API response: Missing expected data structure"
	msgEmptyResult       = "Could not identify vehicle: API returned empty result"
	msgUnknownAPIError   = "Unknown error"
)

// GeminiOptions GeminiClient 构造参数
type GeminiOptions struct {
	APIKey string
	// BaseURL 为空时使用 DefaultGeminiBaseURL；仅测试或代理需要覆盖
	BaseURL string
	// Timeout 为 0 时不设置超时，由 ctx 与传输层决定
	Timeout time.Duration
	// HTTPClient 可选，替换底层 *http.Client
	HTTPClient *http.Client
	Logger     *log.Logger
}

// GeminiClient 基于 generateContent 的车辆识别客户端
type GeminiClient struct {
	apiKey  string
	baseURL string
	client  *resty.Client
}

var _ Identifier = (*GeminiClient)(nil)

// NewGeminiClient 创建新的 Gemini 客户端
func NewGeminiClient(opts GeminiOptions) (*GeminiClient, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required: %w", errors.ErrInvalidArg)
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}

	var client *resty.Client
	if opts.HTTPClient != nil {
		client = resty.NewWithClient(opts.HTTPClient)
	} else {
		client = resty.New()
	}
	// 单次调用：重试策略属于调用方
	client.SetRetryCount(0)
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.Logger != nil {
		client.SetLogger(restyLogger{l: opts.Logger, secret: apiKey})
	}

	return &GeminiClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  client,
	}, nil
}

// Name 返回提供商名称
func (c *GeminiClient) Name() string {
	return "gemini"
}

type generateRequest struct {
	Contents []requestContent `json:"contents"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// 响应各层均用指针或切片，以区分字段缺失与空值
type generateResponse struct {
	Candidates []*candidate `json:"candidates"`
}

type candidate struct {
	Content *struct {
		Parts []*struct {
			Text *string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
}

type apiErrorBody struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// newGenerateRequest 构造 prompt + inline JPEG 两段式请求体
func newGenerateRequest(image string) generateRequest {
	return generateRequest{
		Contents: []requestContent{{
			Parts: []requestPart{
				{Text: IdentifyPrompt},
				{InlineData: &inlineData{MimeType: ImageMIMEType, Data: image}},
			},
		}},
	}
}

// Identify 发起一次 generateContent 调用并提取 candidates[0].content.parts[0].text
func (c *GeminiClient) Identify(ctx context.Context, image string) (string, error) {
	if strings.TrimSpace(image) == "" {
		return "", errors.New(errors.KindInvalidInput, msgInvalidInput)
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("key", c.apiKey).
		SetBody(newGenerateRequest(image)).
		Post(c.baseURL + "/models/" + GeminiModel + ":generateContent")

	if err != nil && (resp == nil || resp.RawResponse == nil) {
		return "", &errors.Error{Kind: errors.KindNetworkError, Message: msgNetworkError, Err: c.redact(err)}
	}

	if status := resp.StatusCode(); status < 200 || status > 299 {
		return "", classifyStatus(status, resp.Body())
	}
	if err != nil {
		// 已收到 2xx 但读取响应体失败
		return "", &errors.Error{Kind: errors.KindMalformedResponse, Message: msgMalformedResponse, Err: err}
	}

	return extractText(resp.Body())
}

// redactedMark 替换 URL 中 key 参数的占位
const redactedMark = "REDACTED"

// redact 去掉传输错误里携带的 ?key=；保留错误链以便 errors.Is(ctx 错误)
func (c *GeminiClient) redact(err error) error {
	if ue, ok := err.(*url.Error); ok {
		cp := *ue
		cp.URL = redactURL(ue.URL, c.apiKey)
		cp.Err = c.redact(ue.Err)
		return &cp
	}
	if err == nil || !strings.Contains(err.Error(), c.apiKey) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), c.apiKey, redactedMark), err: err}
}

func redactURL(raw, secret string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return strings.ReplaceAll(raw, secret, redactedMark)
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", redactedMark)
		u.RawQuery = q.Encode()
	}
	return strings.ReplaceAll(u.String(), secret, redactedMark)
}

// redactedError 文本已脱敏，Unwrap 仍指向原错误
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

// classifyStatus 将非 2xx 状态映射为失败类别
func classifyStatus(status int, body []byte) error {
	switch status {
	case http.StatusBadRequest:
		return &errors.Error{Kind: errors.KindBadRequest, Message: msgBadRequest, Status: status}
	case http.StatusUnauthorized:
		return &errors.Error{Kind: errors.KindUnauthorized, Message: msgUnauthorized, Status: status}
	case http.StatusTooManyRequests:
		return &errors.Error{Kind: errors.KindRateLimited, Message: msgRateLimited, Status: status}
	}
	serverMsg := ""
	var b apiErrorBody
	if json.Unmarshal(body, &b) == nil && b.Error != nil {
		serverMsg = b.Error.Message
	}
	shown := serverMsg
	if shown == "" {
		shown = msgUnknownAPIError
	}
	return &errors.Error{
		Kind:          errors.KindAPIError,
		Message:       fmt.Sprintf("API error: %d - %s", status, shown),
		Status:        status,
		ServerMessage: serverMsg,
	}
}

// extractText 沿 candidates[0].content.parts[0].text 取值；任一环缺失为 MalformedResponse
func extractText(body []byte) (string, error) {
	malformed := func(cause error) error {
		return &errors.Error{Kind: errors.KindMalformedResponse, Message: msgMalformedResponse, Err: cause}
	}
	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", malformed(err)
	}
	if len(out.Candidates) == 0 || out.Candidates[0] == nil {
		return "", malformed(nil)
	}
	content := out.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 || content.Parts[0] == nil || content.Parts[0].Text == nil {
		return "", malformed(nil)
	}
	text := *content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", errors.New(errors.KindEmptyResult, msgEmptyResult)
	}
	return text, nil
}

// restyLogger 将 resty 日志接入 slog，输出前去掉 API Key
type restyLogger struct {
	l      *log.Logger
	secret string
}

func (r restyLogger) format(format string, v ...interface{}) string {
	return strings.ReplaceAll(strings.TrimSpace(fmt.Sprintf(format, v...)), r.secret, redactedMark)
}

func (r restyLogger) Errorf(format string, v ...interface{}) {
	r.l.Error(r.format(format, v...), "component", "resty")
}

func (r restyLogger) Warnf(format string, v ...interface{}) {
	r.l.Warn(r.format(format, v...), "component", "resty")
}

func (r restyLogger) Debugf(format string, v ...interface{}) {
	r.l.Debug(r.format(format, v...), "component", "resty")
}
