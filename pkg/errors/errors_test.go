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

package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestWrap(t *testing.T) {
	if Wrap(nil, "msg") != nil {
		t.Error("Wrap(nil, msg) should return nil")
	}
	err := errors.New("base")
	wrapped := Wrap(err, "context")
	if wrapped == nil {
		t.Fatal("Wrap(err, msg) should not return nil")
	}
	if !errors.Is(wrapped, err) {
		t.Error("wrapped error should unwrap to base")
	}
}

func TestWrapf(t *testing.T) {
	if Wrapf(nil, "format %s", "x") != nil {
		t.Error("Wrapf(nil, ...) should return nil")
	}
	err := errors.New("base")
	wrapped := Wrapf(err, "id=%s", "a")
	if !errors.Is(wrapped, err) {
		t.Error("wrapped error should unwrap to base")
	}
}

func TestKindMatching(t *testing.T) {
	err := fmt.Errorf("identify: %w", New(KindRateLimited, "slow down"))
	if !errors.Is(err, KindRateLimited) {
		t.Error("wrapped *Error should match its Kind")
	}
	if errors.Is(err, KindAPIError) {
		t.Error("RateLimited must not match ApiError")
	}
	if errors.Is(err, KindNetworkError) {
		t.Error("RateLimited must not match NetworkError")
	}
	if got := KindOf(err); got != KindRateLimited {
		t.Errorf("KindOf = %q, want %q", got, KindRateLimited)
	}
	if got := KindOf(errors.New("plain")); got != "" {
		t.Errorf("KindOf(plain) = %q, want empty", got)
	}
}

func TestNetworkErrorUnwrapsCause(t *testing.T) {
	err := &Error{Kind: KindNetworkError, Message: "Network error", Err: context.Canceled}
	if !errors.Is(err, context.Canceled) {
		t.Error("network error should unwrap to its cause")
	}
	if !errors.Is(err, KindNetworkError) {
		t.Error("network error should match KindNetworkError")
	}
}
