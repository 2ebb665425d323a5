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

package config

import (
	"time"

	"github.com/scrcpyx/scrcpyx/internal/mirror"
)

// Config represents the scrcpyx daemon configuration
// Config 表示 scrcpyx 守护进程配置
type Config struct {
	// App configuration / 应用配置
	App AppConfig `mapstructure:"app" yaml:"app"`

	// Scrcpy configuration / scrcpy 配置
	Scrcpy ScrcpyConfig `mapstructure:"scrcpy" yaml:"scrcpy"`

	// Log configuration / 日志配置
	Log LogConfig `mapstructure:"log" yaml:"log"`

	// Database configuration / 数据库配置
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`

	// Telemetry configuration / 遥测配置
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
}

// AppConfig contains HTTP server settings
// AppConfig 包含 HTTP 服务设置
type AppConfig struct {
	// Name is used as the tracing service name and gin middleware name
	// Name 用作追踪服务名和 gin 中间件名
	Name string `mapstructure:"name" yaml:"name"`

	// Env is development or production
	// Env 是 development 或 production
	Env string `mapstructure:"env" yaml:"env"`

	// Addr is the listen address of the HTTP API
	// Addr 是 HTTP API 的监听地址
	Addr string `mapstructure:"addr" yaml:"addr"`

	// APIPrefix is the route prefix, e.g. /api
	// APIPrefix 是路由前缀，例如 /api
	APIPrefix string `mapstructure:"api_prefix" yaml:"api_prefix"`
}

// ScrcpyConfig contains mirroring settings
// ScrcpyConfig 包含镜像相关设置
type ScrcpyConfig struct {
	// ResourceDir is the directory holding the bundled scrcpy/ and adb/ folders
	// ResourceDir 是存放打包的 scrcpy/ 和 adb/ 目录的路径
	ResourceDir string `mapstructure:"resource_dir" yaml:"resource_dir"`

	// PruneInterval is how often exited sessions are pruned in the background (0 disables)
	// PruneInterval 是后台清理已退出会话的间隔（0 表示禁用）
	PruneInterval time.Duration `mapstructure:"prune_interval" yaml:"prune_interval"`

	// LockFile guards against a second daemon instance
	// LockFile 用于防止启动第二个守护进程实例
	LockFile string `mapstructure:"lock_file" yaml:"lock_file"`

	// Defaults are the options used when a caller omits them
	// Defaults 是调用方未提供时使用的选项
	Defaults mirror.Options `mapstructure:"defaults" yaml:"defaults"`
}

// LogConfig contains logging settings
// LogConfig 包含日志设置
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// DatabaseConfig contains session history storage settings
// DatabaseConfig 包含会话历史存储设置
type DatabaseConfig struct {
	Enabled         bool   `mapstructure:"enabled" yaml:"enabled"`
	Type            string `mapstructure:"type" yaml:"type"`               // sqlite, mysql, postgres
	SQLitePath      string `mapstructure:"sqlite_path" yaml:"sqlite_path"` // SQLite 文件路径
	Host            string `mapstructure:"host" yaml:"host"`
	Port            int    `mapstructure:"port" yaml:"port"`
	Username        string `mapstructure:"username" yaml:"username"`
	Password        string `mapstructure:"password" yaml:"password"`
	Database        string `mapstructure:"database" yaml:"database"`
	MaxIdleConn     int    `mapstructure:"max_idle_conn" yaml:"max_idle_conn"`
	MaxOpenConn     int    `mapstructure:"max_open_conn" yaml:"max_open_conn"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"` // seconds
	LogLevel        string `mapstructure:"log_level" yaml:"log_level"`
}

// TelemetryConfig contains OpenTelemetry tracing settings
// TelemetryConfig 包含 OpenTelemetry 追踪设置
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint    string `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure    bool   `mapstructure:"insecure" yaml:"insecure"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
}
