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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"car-identifier/internal/acquire"
	apihttp "car-identifier/internal/api/http"
	"car-identifier/pkg/errors"
)

func apiBaseURL() string {
	if u := os.Getenv("CAR_IDENTIFIER_API_URL"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func newClient() *resty.Client {
	return resty.New().
		SetBaseURL(apiBaseURL()).
		SetTimeout(60 * time.Second).
		SetHeader("Content-Type", "application/json")
}

func checkHealth(ctx context.Context) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	resp, err := newClient().R().
		SetContext(ctx).
		SetResult(&out).
		Get("/api/health")
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("GET /api/health: %s", resp.String())
	}
	return out.Status, nil
}

// identifyRemote 调用 API 服务；失败时还原为 *errors.Error 以便统一展示
func identifyRemote(ctx context.Context, payload acquire.Payload) (*apihttp.IdentifyResponse, error) {
	var out apihttp.IdentifyResponse
	resp, err := newClient().R().
		SetContext(ctx).
		SetBody(map[string]string{"image_base64": payload.String()}).
		SetResult(&out).
		Post("/api/identify")
	if err != nil {
		return nil, &errors.Error{
			Kind:    errors.KindNetworkError,
			Message: "Network error: could not reach " + apiBaseURL(),
			Err:     err,
		}
	}
	if resp.StatusCode() != http.StatusOK {
		var body apihttp.ErrorResponse
		if jerr := json.Unmarshal(resp.Body(), &body); jerr != nil || body.Error == "" {
			return nil, fmt.Errorf("POST /api/identify: %d %s", resp.StatusCode(), resp.String())
		}
		return nil, &errors.Error{
			Kind:    errors.Kind(body.Kind),
			Message: body.Error,
			Status:  body.Status,
		}
	}
	return &out, nil
}
