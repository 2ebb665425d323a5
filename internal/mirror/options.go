/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package mirror

import "strconv"

// Default option values applied when a caller does not override them.
// 调用方未覆盖时使用的默认选项值。
const (
	// DefaultMaxSize caps the longer screen dimension in pixels.
	// DefaultMaxSize 限制屏幕较长边的像素数。
	DefaultMaxSize uint32 = 1920

	// DefaultBitRate is the video bit rate in bits per second (8 Mbps).
	// DefaultBitRate 是视频码率（比特/秒，8 Mbps）。
	DefaultBitRate uint32 = 8000000

	// DefaultMaxFPS caps the capture frame rate.
	// DefaultMaxFPS 限制采集帧率。
	DefaultMaxFPS uint32 = 60
)

// Options configures one scrcpy launch. It is applied at launch time only.
// A zero numeric field means the flag is not passed to scrcpy.
// Options 配置一次 scrcpy 启动，仅在启动时生效。数值字段为零表示不传递该参数。
type Options struct {
	MaxSize       uint32 `json:"max_size" yaml:"max_size" mapstructure:"max_size"`
	BitRate       uint32 `json:"bit_rate" yaml:"bit_rate" mapstructure:"bit_rate"`
	MaxFPS        uint32 `json:"max_fps" yaml:"max_fps" mapstructure:"max_fps"`
	AlwaysOnTop   bool   `json:"always_on_top" yaml:"always_on_top" mapstructure:"always_on_top"`
	StayAwake     bool   `json:"stay_awake" yaml:"stay_awake" mapstructure:"stay_awake"`
	TurnScreenOff bool   `json:"turn_screen_off" yaml:"turn_screen_off" mapstructure:"turn_screen_off"`
}

// DefaultOptions returns the documented defaults.
// DefaultOptions 返回文档化的默认选项。
func DefaultOptions() Options {
	return Options{
		MaxSize:       DefaultMaxSize,
		BitRate:       DefaultBitRate,
		MaxFPS:        DefaultMaxFPS,
		AlwaysOnTop:   false,
		StayAwake:     true,
		TurnScreenOff: false,
	}
}

// OptionsPatch carries a partial set of options from a caller.
// Nil fields keep the value of the base options.
// OptionsPatch 表示调用方提供的部分选项，nil 字段保留基础选项的值。
type OptionsPatch struct {
	MaxSize       *uint32 `json:"max_size,omitempty"`
	BitRate       *uint32 `json:"bit_rate,omitempty"`
	MaxFPS        *uint32 `json:"max_fps,omitempty"`
	AlwaysOnTop   *bool   `json:"always_on_top,omitempty"`
	StayAwake     *bool   `json:"stay_awake,omitempty"`
	TurnScreenOff *bool   `json:"turn_screen_off,omitempty"`
}

// Apply returns base with every non-nil field of p applied.
// Apply 返回应用了 p 中所有非 nil 字段后的 base。
func (p *OptionsPatch) Apply(base Options) Options {
	if p == nil {
		return base
	}
	if p.MaxSize != nil {
		base.MaxSize = *p.MaxSize
	}
	if p.BitRate != nil {
		base.BitRate = *p.BitRate
	}
	if p.MaxFPS != nil {
		base.MaxFPS = *p.MaxFPS
	}
	if p.AlwaysOnTop != nil {
		base.AlwaysOnTop = *p.AlwaysOnTop
	}
	if p.StayAwake != nil {
		base.StayAwake = *p.StayAwake
	}
	if p.TurnScreenOff != nil {
		base.TurnScreenOff = *p.TurnScreenOff
	}
	return base
}

// Args renders one scrcpy flag per populated option.
// Args 为每个已设置的选项生成一个 scrcpy 参数。
func (o Options) Args() []string {
	var args []string
	if o.MaxSize > 0 {
		args = append(args, "--max-size", strconv.FormatUint(uint64(o.MaxSize), 10))
	}
	if o.BitRate > 0 {
		args = append(args, "--bit-rate", strconv.FormatUint(uint64(o.BitRate), 10))
	}
	if o.MaxFPS > 0 {
		args = append(args, "--max-fps", strconv.FormatUint(uint64(o.MaxFPS), 10))
	}
	if o.AlwaysOnTop {
		args = append(args, "--always-on-top")
	}
	if o.StayAwake {
		args = append(args, "--stay-awake")
	}
	if o.TurnScreenOff {
		args = append(args, "--turn-screen-off")
	}
	return args
}
