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

// Package vehicle 将模型返回的自由文本整理为展示用字段；解析尽力而为，从不报错
package vehicle

import (
	"sort"
	"strings"
)

// 可识别的标签
const (
	LabelMake         = "Make"
	LabelModel        = "Model"
	LabelYear         = "Year"
	LabelColor        = "Color"
	LabelVehicleType  = "Vehicle Type"
	LabelLicensePlate = "License Plate"
)

// KnownLabels 展示时的固定顺序
var KnownLabels = []string{LabelMake, LabelModel, LabelYear, LabelColor, LabelVehicleType, LabelLicensePlate}

// Fields label → value
type Fields map[string]string

// Field 单行展示项
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Parse 按行切分，每行在第一个冒号处拆成 label/value 并去空白；
// 无冒号或任一侧为空的行丢弃。重复 label 以最后一次为准（兼容旧行为，并非刻意策略）。
func Parse(text string) Fields {
	fields := make(Fields)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		label = strings.TrimSpace(label)
		value = strings.TrimSpace(value)
		if label == "" || value == "" {
			continue
		}
		fields[label] = value
	}
	return fields
}

// Ordered 已知标签按固定顺序在前，其余按字母序
func (f Fields) Ordered() []Field {
	out := make([]Field, 0, len(f))
	known := make(map[string]bool, len(KnownLabels))
	for _, label := range KnownLabels {
		known[label] = true
		if v, ok := f[label]; ok {
			out = append(out, Field{Label: label, Value: v})
		}
	}
	var rest []string
	for label := range f {
		if !known[label] {
			rest = append(rest, label)
		}
	}
	sort.Strings(rest)
	for _, label := range rest {
		out = append(out, Field{Label: label, Value: f[label]})
	}
	return out
}

// Card 已知标签的类型化视图，缺失字段为空串
type Card struct {
	Make         string `json:"make,omitempty"`
	Model        string `json:"model,omitempty"`
	Year         string `json:"year,omitempty"`
	Color        string `json:"color,omitempty"`
	VehicleType  string `json:"vehicle_type,omitempty"`
	LicensePlate string `json:"license_plate,omitempty"`
}

// Card 提取已知标签
func (f Fields) Card() Card {
	return Card{
		Make:         f[LabelMake],
		Model:        f[LabelModel],
		Year:         f[LabelYear],
		Color:        f[LabelColor],
		VehicleType:  f[LabelVehicleType],
		LicensePlate: f[LabelLicensePlate],
	}
}

// Empty 没有任何已知字段
func (c Card) Empty() bool {
	return c == Card{}
}

// PlateVisible 车牌存在且不是 "Not visible"
func (c Card) PlateVisible() bool {
	p := strings.Trim(strings.TrimSpace(c.LicensePlate), "'\"")
	return p != "" && !strings.EqualFold(p, "not visible")
}
