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

// Package session 单次识别流程的状态机：同一会话最多一个进行中的识别。
//
//	Idle/Displaying --Begin--> Capturing
//	Capturing --Captured--> AwaitingResult
//	Capturing --CancelCapture/CaptureFailed--> Idle
//	AwaitingResult --Resolve--> Displaying
//	Displaying --Reset--> Idle
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"car-identifier/internal/acquire"
	"car-identifier/internal/model/vision"
	"car-identifier/internal/vehicle"
)

var (
	// ErrBusy 已有采集或识别在进行中
	ErrBusy = errors.New("session: identification already in progress")
	// ErrInvalidTransition 当前状态不允许该操作
	ErrInvalidTransition = errors.New("session: invalid transition")
)

// State 会话状态
type State int

const (
	StateIdle State = iota
	StateCapturing
	StateAwaitingResult
	StateDisplaying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateAwaitingResult:
		return "awaiting_result"
	case StateDisplaying:
		return "displaying"
	default:
		return "unknown"
	}
}

// Result 一次识别的结果；Err 非 nil 时 Text/Fields 为空。不携带图片负载
type Result struct {
	Text   string
	Fields vehicle.Fields
	Err    error
}

// Failed 结果是否为失败
func (r Result) Failed() bool { return r.Err != nil }

// Session 互斥保护的状态容器
type Session struct {
	mu         sync.Mutex
	state      State
	payload    acquire.Payload
	result     *Result
	identifier vision.Identifier
}

// New 创建空闲会话
func New(identifier vision.Identifier) *Session {
	return &Session{identifier: identifier}
}

// State 当前状态
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result 最近一次结果，仅 Displaying 状态下存在
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateDisplaying || s.result == nil {
		return Result{}, false
	}
	return *s.result, true
}

// Begin 开始采集；上一次结果被丢弃
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateIdle, StateDisplaying:
		s.state = StateCapturing
		s.payload = ""
		s.result = nil
		return nil
	default:
		return ErrBusy
	}
}

// Captured 采集完成，进入等待识别
func (s *Session) Captured(p acquire.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.expect(StateCapturing, "captured"); err != nil {
		return err
	}
	s.payload = p
	s.state = StateAwaitingResult
	return nil
}

// CancelCapture 用户取消采集
func (s *Session) CancelCapture() error {
	return s.backToIdle("cancel_capture")
}

// CaptureFailed 采集失败（权限、读取、格式），不调用识别
func (s *Session) CaptureFailed() error {
	return s.backToIdle("capture_failed")
}

func (s *Session) backToIdle(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.expect(StateCapturing, op); err != nil {
		return err
	}
	s.state = StateIdle
	s.payload = ""
	return nil
}

// Resolve 记录识别结果并进入展示；请求已结束，负载随即丢弃
func (s *Session) Resolve(r Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.expect(StateAwaitingResult, "resolve"); err != nil {
		return err
	}
	s.payload = ""
	s.result = &r
	s.state = StateDisplaying
	return nil
}

// Reset 关闭结果展示
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.expect(StateDisplaying, "reset"); err != nil {
		return err
	}
	s.state = StateIdle
	s.result = nil
	return nil
}

func (s *Session) expect(want State, op string) error {
	if s.state != want {
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, op, s.state)
	}
	return nil
}

// Identify 对 AwaitingResult 状态下的负载发起识别并 Resolve。
// 识别失败记录在 Result.Err 中，返回的 error 仅表示状态错误。
func (s *Session) Identify(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if err := s.expect(StateAwaitingResult, "identify"); err != nil {
		s.mu.Unlock()
		return Result{}, err
	}
	payload := s.payload
	s.mu.Unlock()

	var r Result
	text, err := s.identifier.Identify(ctx, payload.String())
	if err != nil {
		r.Err = err
	} else {
		r.Text = text
		r.Fields = vehicle.Parse(text)
	}
	if err := s.Resolve(r); err != nil {
		return Result{}, err
	}
	return r, nil
}

// CaptureFunc 获取图片负载；返回 acquire.ErrEmpty 视为用户取消
type CaptureFunc func(ctx context.Context) (acquire.Payload, error)

// Run 完整跑一轮 Begin → capture → Identify。采集失败时回到 Idle 并返回采集错误，不调用识别。
func (s *Session) Run(ctx context.Context, capture CaptureFunc) (Result, error) {
	if err := s.Begin(); err != nil {
		return Result{}, err
	}
	p, err := capture(ctx)
	if err != nil {
		if errors.Is(err, acquire.ErrEmpty) {
			_ = s.CancelCapture()
		} else {
			_ = s.CaptureFailed()
		}
		return Result{}, err
	}
	if err := s.Captured(p); err != nil {
		return Result{}, err
	}
	return s.Identify(ctx)
}
