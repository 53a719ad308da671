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
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"car-identifier/internal/model/vision"
	"car-identifier/pkg/errors"
)

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func jsonBody(t *testing.T, v any) *ut.Body {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return &ut.Body{Body: bytes.NewReader(b), Len: len(b)}
}

func identifyServer(identifier vision.Identifier, maxBytes int64) *server.Hertz {
	h := server.Default(server.WithHostPorts(":0"))
	handler := NewHandler(identifier, maxBytes)
	h.POST("/api/identify", func(ctx context.Context, c *app.RequestContext) {
		handler.Identify(ctx, c)
	})
	return h
}

func TestHealthCheck(t *testing.T) {
	h := server.Default(server.WithHostPorts(":0"))
	handler := NewHandler(nil, 0)
	h.GET("/api/health", func(ctx context.Context, c *app.RequestContext) {
		handler.HealthCheck(ctx, c)
	})
	w := ut.PerformRequest(h.Engine, "GET", "/api/health", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	resp := w.Result()
	assert.Equal(t, 200, resp.StatusCode())
	assert.JSONEq(t, `{"status":"ok"}`, string(resp.Body()))
}

func TestIdentify_JSONSuccess(t *testing.T) {
	stub := &vision.StubIdentifier{Text: "Make: Toyota\nModel: Corolla\nYear: 2020\nNotes here"}
	h := identifyServer(stub, 0)

	img := base64.StdEncoding.EncodeToString(testJPEG(t))
	w := ut.PerformRequest(h.Engine, "POST", "/api/identify", jsonBody(t, map[string]string{"image_base64": img}),
		ut.Header{Key: "Content-Type", Value: "application/json"},
		ut.Header{Key: HeaderRequestID, Value: "req-1"})
	resp := w.Result()
	require.Equal(t, 200, resp.StatusCode(), string(resp.Body()))
	assert.Equal(t, "req-1", resp.Header.Get(HeaderRequestID))

	var got IdentifyResponse
	require.NoError(t, json.Unmarshal(resp.Body(), &got))
	assert.Equal(t, "req-1", got.RequestID)
	assert.Equal(t, stub.Text, got.Text)
	assert.Equal(t, "Toyota", got.Fields["Make"])
	assert.Len(t, got.Fields, 3)
	require.Len(t, got.Ordered, 3)
	assert.Equal(t, "Make", got.Ordered[0].Label)
	assert.Equal(t, "Corolla", got.Card.Model)
	assert.Equal(t, 1, stub.Calls)
}

func TestIdentify_GeneratesRequestID(t *testing.T) {
	h := identifyServer(&vision.StubIdentifier{Text: "Make: Kia"}, 0)
	img := base64.StdEncoding.EncodeToString(testJPEG(t))
	w := ut.PerformRequest(h.Engine, "POST", "/api/identify", jsonBody(t, map[string]string{"image_base64": img}))
	resp := w.Result()
	require.Equal(t, 200, resp.StatusCode())
	assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))
}

func TestIdentify_Multipart(t *testing.T) {
	stub := &vision.StubIdentifier{Text: "Make: Mazda"}
	h := identifyServer(stub, 1<<20)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "car.jpg")
	require.NoError(t, err)
	_, err = part.Write(testJPEG(t))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := ut.PerformRequest(h.Engine, "POST", "/api/identify",
		&ut.Body{Body: bytes.NewReader(buf.Bytes()), Len: buf.Len()},
		ut.Header{Key: "Content-Type", Value: mw.FormDataContentType()})
	resp := w.Result()
	require.Equal(t, 200, resp.StatusCode(), string(resp.Body()))
	assert.Contains(t, string(resp.Body()), "Mazda")
	assert.Equal(t, 1, stub.Calls)
}

func TestIdentify_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"empty body", ``, 400},
		{"empty image", `{"image_base64":""}`, 400},
		{"not json", `image please`, 400},
		{"not base64", `{"image_base64":"***"}`, 400},
		{"not an image", `{"image_base64":"aGVsbG8gd29ybGQ="}`, 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &vision.StubIdentifier{Text: "Make: X"}
			h := identifyServer(stub, 0)
			w := ut.PerformRequest(h.Engine, "POST", "/api/identify",
				&ut.Body{Body: bytes.NewReader([]byte(tt.body)), Len: len(tt.body)})
			resp := w.Result()
			assert.Equal(t, tt.status, resp.StatusCode())
			assert.Contains(t, string(resp.Body()), `"kind":"invalid_input"`)
			assert.Equal(t, 0, stub.Calls)
		})
	}
}

func TestIdentify_TooLarge(t *testing.T) {
	stub := &vision.StubIdentifier{Text: "Make: X"}
	h := identifyServer(stub, 16)
	img := base64.StdEncoding.EncodeToString(testJPEG(t))
	w := ut.PerformRequest(h.Engine, "POST", "/api/identify", jsonBody(t, map[string]string{"image_base64": img}))
	assert.Equal(t, 413, w.Result().StatusCode())
	assert.Equal(t, 0, stub.Calls)
}

func TestIdentify_ErrorMapping(t *testing.T) {
	tests := []struct {
		kind   errors.Kind
		status int
	}{
		{errors.KindBadRequest, 422},
		{errors.KindUnauthorized, 502},
		{errors.KindRateLimited, 429},
		{errors.KindAPIError, 502},
		{errors.KindNetworkError, 504},
		{errors.KindMalformedResponse, 502},
		{errors.KindEmptyResult, 422},
	}
	img := base64.StdEncoding.EncodeToString(testJPEG(t))
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			idErr := &errors.Error{Kind: tt.kind, Message: "boom " + string(tt.kind)}
			if tt.kind == errors.KindAPIError {
				idErr.Status = 503
			}
			h := identifyServer(&vision.StubIdentifier{Err: idErr}, 0)
			w := ut.PerformRequest(h.Engine, "POST", "/api/identify", jsonBody(t, map[string]string{"image_base64": img}))
			resp := w.Result()
			assert.Equal(t, tt.status, resp.StatusCode())

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(resp.Body(), &body))
			assert.Equal(t, string(tt.kind), body.Kind)
			assert.Equal(t, "boom "+string(tt.kind), body.Error)
			if tt.kind == errors.KindAPIError {
				assert.Equal(t, 503, body.Status)
			} else {
				assert.Zero(t, body.Status)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, 400, StatusFor(errors.KindInvalidInput))
	assert.Equal(t, 500, StatusFor(errors.Kind("something_else")))
}
