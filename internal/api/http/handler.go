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

package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"

	"car-identifier/internal/acquire"
	"car-identifier/internal/model/vision"
	"car-identifier/internal/session"
	"car-identifier/internal/vehicle"
	"car-identifier/pkg/errors"
	"car-identifier/pkg/metrics"
)

// HeaderRequestID 请求 ID 头，客户端可自带，否则服务端生成
const HeaderRequestID = "X-Request-ID"

// Handler HTTP 处理器
type Handler struct {
	identifier   vision.Identifier
	maxBodyBytes int64
}

// NewHandler 创建 HTTP 处理器；maxBodyBytes<=0 表示不限制图片大小
func NewHandler(identifier vision.Identifier, maxBodyBytes int64) *Handler {
	return &Handler{identifier: identifier, maxBodyBytes: maxBodyBytes}
}

type identifyRequest struct {
	ImageBase64 string `json:"image_base64"`
}

// IdentifyResponse POST /api/identify 成功响应
type IdentifyResponse struct {
	RequestID string          `json:"request_id"`
	Text      string          `json:"text"`
	Fields    vehicle.Fields  `json:"fields"`
	Ordered   []vehicle.Field `json:"ordered"`
	Card      vehicle.Card    `json:"card"`
}

// ErrorResponse 错误响应；Status 仅在上游返回了 HTTP 状态时出现
type ErrorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind"`
	Status int    `json:"status,omitempty"`
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, map[string]string{"status": "ok"})
}

// Metrics Prometheus 文本格式
// GET /metrics
func (h *Handler) Metrics(ctx context.Context, c *app.RequestContext) {
	var buf bytes.Buffer
	if err := metrics.WritePrometheus(&buf); err != nil {
		hlog.CtxErrorf(ctx, "write metrics: %v", err)
		c.JSON(consts.StatusInternalServerError, map[string]string{"error": "metrics unavailable"})
		return
	}
	c.Data(consts.StatusOK, metrics.ContentType(), buf.Bytes())
}

// Identify 识别上传图片中的车辆
// POST /api/identify  body: {"image_base64": "..."} 或 multipart 字段 image
func (h *Handler) Identify(ctx context.Context, c *app.RequestContext) {
	requestID := strings.TrimSpace(string(c.GetHeader(HeaderRequestID)))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header(HeaderRequestID, requestID)
	ctx = vision.WithRequestID(ctx, requestID)

	s := session.New(h.identifier)
	result, err := s.Run(ctx, func(context.Context) (acquire.Payload, error) {
		return h.readPayload(c)
	})
	if err != nil {
		status := consts.StatusBadRequest
		if errors.Is(err, acquire.ErrTooLarge) {
			status = consts.StatusRequestEntityTooLarge
		}
		hlog.CtxInfof(ctx, "identify rejected request_id=%s: %v", requestID, err)
		c.JSON(status, ErrorResponse{Error: err.Error(), Kind: string(errors.KindInvalidInput)})
		return
	}
	if result.Failed() {
		writeIdentifyError(c, result.Err)
		return
	}

	c.JSON(consts.StatusOK, IdentifyResponse{
		RequestID: requestID,
		Text:      result.Text,
		Fields:    result.Fields,
		Ordered:   result.Fields.Ordered(),
		Card:      result.Fields.Card(),
	})
}

// readPayload 按 Content-Type 读取 multipart 文件或 JSON base64
func (h *Handler) readPayload(c *app.RequestContext) (acquire.Payload, error) {
	if strings.HasPrefix(string(c.ContentType()), "multipart/form-data") {
		fh, err := c.FormFile("image")
		if err != nil {
			return "", acquire.ErrEmpty
		}
		if h.maxBodyBytes > 0 && fh.Size > h.maxBodyBytes {
			return "", acquire.ErrTooLarge
		}
		f, err := fh.Open()
		if err != nil {
			return "", errors.Wrap(err, "open upload")
		}
		defer f.Close()
		p, _, err := acquire.FromReader(f, h.maxBodyBytes)
		return p, err
	}

	var req identifyRequest
	if body := c.Request.Body(); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return "", errors.Wrap(errors.ErrInvalidArg, "request body must be JSON")
		}
	}
	if h.maxBodyBytes > 0 && int64(len(req.ImageBase64)) > int64(base64.StdEncoding.EncodedLen(int(h.maxBodyBytes)))+64 {
		return "", acquire.ErrTooLarge
	}
	p, _, err := acquire.FromBase64(req.ImageBase64)
	return p, err
}

// StatusFor 识别失败类别对应的 HTTP 状态
func StatusFor(kind errors.Kind) int {
	switch kind {
	case errors.KindInvalidInput:
		return consts.StatusBadRequest
	case errors.KindBadRequest, errors.KindEmptyResult:
		return consts.StatusUnprocessableEntity
	case errors.KindRateLimited:
		return consts.StatusTooManyRequests
	case errors.KindNetworkError:
		return consts.StatusGatewayTimeout
	case errors.KindUnauthorized, errors.KindAPIError, errors.KindMalformedResponse:
		return consts.StatusBadGateway
	default:
		return consts.StatusInternalServerError
	}
}

func writeIdentifyError(c *app.RequestContext, err error) {
	resp := ErrorResponse{Error: err.Error(), Kind: string(errors.KindOf(err))}
	var ie *errors.Error
	if errors.As(err, &ie) {
		resp.Status = ie.Status
		resp.Error = ie.Message
	}
	if resp.Kind == "" {
		resp.Kind = "internal"
	}
	c.JSON(StatusFor(errors.Kind(resp.Kind)), resp)
}
