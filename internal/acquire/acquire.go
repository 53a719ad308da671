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

// Package acquire 获取图片并编码为识别所需的 base64 JPEG 负载。
// 非 JPEG 静态图会被重新编码为 JPEG，以保证 inline_data 的 image/jpeg 标注成立。
package acquire

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrEmpty 没有图片数据（未选择、空文件、空上传）
	ErrEmpty = errors.New("acquire: image is empty")
	// ErrUnsupported 数据不是可解码的静态图片
	ErrUnsupported = errors.New("acquire: unsupported image format")
	// ErrTooLarge 超过读取上限
	ErrTooLarge = errors.New("acquire: image too large")
)

const (
	// JPEGQuality 转码质量
	JPEGQuality = 90
	// MaxPixels 转码前允许的最大像素数；解码内存按像素而非编码字节计
	MaxPixels = 40_000_000
)

// Payload base64 编码的 JPEG；每次识别新建，不落盘
type Payload string

// String 返回 base64 文本
func (p Payload) String() string { return string(p) }

// Source 描述负载的来源格式，便于日志
type Source struct {
	Format     string // jpeg | png | gif | bmp | tiff | webp
	Transcoded bool
	Bytes      int
}

// FromBytes 校验并编码图片字节；JPEG 原样编码，其它格式转 JPEG
func FromBytes(data []byte) (Payload, Source, error) {
	if len(data) == 0 {
		return "", Source{}, ErrEmpty
	}
	if isJPEG(data) {
		if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
			return "", Source{}, fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
		return encode(data), Source{Format: "jpeg", Bytes: len(data)}, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", Source{}, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", Source{}, fmt.Errorf("%w: %dx%d", ErrUnsupported, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return "", Source{}, fmt.Errorf("%w: %dx%d pixels", ErrTooLarge, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", Source{}, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	out, err := toJPEG(img)
	if err != nil {
		return "", Source{}, err
	}
	return encode(out), Source{Format: format, Transcoded: true, Bytes: len(out)}, nil
}

// FromReader 读取至多 limit 字节（limit<=0 不限制）
func FromReader(r io.Reader, limit int64) (Payload, Source, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", Source{}, fmt.Errorf("acquire: read image: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return "", Source{}, ErrTooLarge
	}
	return FromBytes(data)
}

// FromFile 读取本地图片文件
func FromFile(path string, limit int64) (Payload, Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", Source{}, fmt.Errorf("acquire: open %s: %w", path, err)
	}
	defer f.Close()
	return FromReader(f, limit)
}

// FromBase64 接受客户端已编码的数据（允许 data URL 前缀），校验后按 FromBytes 处理
func FromBase64(s string) (Payload, Source, error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ";base64,"); strings.HasPrefix(s, "data:") && i >= 0 {
		s = s[i+len(";base64,"):]
	}
	if s == "" {
		return "", Source{}, ErrEmpty
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", Source{}, fmt.Errorf("%w: invalid base64: %v", ErrUnsupported, err)
	}
	return FromBytes(data)
}

func isJPEG(data []byte) bool {
	return len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF
}

func encode(data []byte) Payload {
	return Payload(base64.StdEncoding.EncodeToString(data))
}

// toJPEG 透明区域铺白底后编码
func toJPEG(img image.Image) ([]byte, error) {
	b := img.Bounds()
	canvas := image.NewRGBA(b)
	draw.Draw(canvas, b, image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, b, img, b.Min, draw.Over)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("acquire: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
