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

// Package config provides configuration management for the scrcpyx daemon.
// config 包提供 scrcpyx 守护进程的配置管理功能。
//
// Configuration loading priority (highest to lowest):
// 配置加载优先级（从高到低）：
// 1. Command line arguments / 命令行参数
// 2. Environment variables (SCRCPYX_*) / 环境变量（SCRCPYX_*）
// 3. Configuration file / 配置文件
// 4. Default values / 默认值
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/scrcpyx/scrcpyx/internal/mirror"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Default configuration values
// 默认配置值
const (
	DefaultConfigPath    = "config.yaml"
	DefaultAppName       = "scrcpyx"
	DefaultEnv           = "production"
	DefaultAddr          = "127.0.0.1:27183"
	DefaultAPIPrefix     = "/api"
	DefaultPruneInterval = 5 * time.Second
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogMaxSize    = 100 // MB
	DefaultLogMaxBackups = 3
	DefaultLogMaxAge     = 7 // days
	DefaultDatabaseType  = "sqlite"
	DefaultSQLitePath    = "./data/scrcpyx.db"

	// EnvPrefix is the prefix of environment overrides, e.g. SCRCPYX_APP_ADDR
	// EnvPrefix 是环境变量覆盖的前缀，例如 SCRCPYX_APP_ADDR
	EnvPrefix = "SCRCPYX"

	// EnvConfigPath names the variable holding the config file path
	// EnvConfigPath 是保存配置文件路径的环境变量名
	EnvConfigPath = "SCRCPYX_CONFIG_PATH"
)

// DefaultLockFile returns the default single-instance lock path.
// DefaultLockFile 返回默认的单实例锁文件路径。
func DefaultLockFile() string {
	return filepath.Join(os.TempDir(), "scrcpyx.lock")
}

// Load loads configuration from file and environment variables
// Load 从文件和环境变量加载配置
func Load(configPath string) (*Config, error) {
	return LoadWithPriority(configPath, nil)
}

// LoadWithPriority loads configuration with explicit priority handling
// LoadWithPriority 使用显式优先级处理加载配置
// Priority: cmdArgs > envVars > configFile > defaults
// 优先级：命令行参数 > 环境变量 > 配置文件 > 默认值
func LoadWithPriority(configPath string, cmdArgs map[string]any) (*Config, error) {
	v := viper.New()

	// Set default values / 设置默认值
	setDefaults(v)

	// Set config file path / 设置配置文件路径
	if configPath == "" {
		configPath = os.Getenv(EnvConfigPath)
	}
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	v.SetConfigFile(configPath)

	// Enable environment variable override / 启用环境变量覆盖
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file / 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// A missing file is not an error, defaults apply
		// 配置文件不存在不是错误，使用默认值
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			if _, statErr := os.Stat(v.ConfigFileUsed()); statErr == nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	// Apply command line arguments (highest priority)
	// 应用命令行参数（最高优先级）
	for key, value := range cmdArgs {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadFromYAML loads configuration from YAML bytes
// LoadFromYAML 从 YAML 字节加载配置
func LoadFromYAML(yamlData []byte) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults first / 首先设置默认值
	setDefaults(v)

	if err := v.ReadConfig(strings.NewReader(string(yamlData))); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// App defaults / 应用默认值
	v.SetDefault("app.name", DefaultAppName)
	v.SetDefault("app.env", DefaultEnv)
	v.SetDefault("app.addr", DefaultAddr)
	v.SetDefault("app.api_prefix", DefaultAPIPrefix)

	// Scrcpy defaults / scrcpy 默认值
	opts := mirror.DefaultOptions()
	v.SetDefault("scrcpy.resource_dir", "")
	v.SetDefault("scrcpy.prune_interval", DefaultPruneInterval)
	v.SetDefault("scrcpy.lock_file", DefaultLockFile())
	v.SetDefault("scrcpy.defaults.max_size", opts.MaxSize)
	v.SetDefault("scrcpy.defaults.bit_rate", opts.BitRate)
	v.SetDefault("scrcpy.defaults.max_fps", opts.MaxFPS)
	v.SetDefault("scrcpy.defaults.always_on_top", opts.AlwaysOnTop)
	v.SetDefault("scrcpy.defaults.stay_awake", opts.StayAwake)
	v.SetDefault("scrcpy.defaults.turn_screen_off", opts.TurnScreenOff)

	// Log defaults / 日志默认值
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", DefaultLogMaxSize)
	v.SetDefault("log.max_backups", DefaultLogMaxBackups)
	v.SetDefault("log.max_age", DefaultLogMaxAge)
	v.SetDefault("log.compress", false)

	// Database defaults / 数据库默认值
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.type", DefaultDatabaseType)
	v.SetDefault("database.sqlite_path", DefaultSQLitePath)
	v.SetDefault("database.max_idle_conn", 5)
	v.SetDefault("database.max_open_conn", 20)
	v.SetDefault("database.conn_max_lifetime", 3600)
	v.SetDefault("database.log_level", "warn")

	// Telemetry defaults / 遥测默认值
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4317")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.service_name", DefaultAppName)
}

// Validate validates the configuration
// Validate 验证配置
func (c *Config) Validate() error {
	if c.App.Addr == "" {
		return errors.New("app.addr is required")
	}

	// Validate environment / 验证运行环境
	if c.App.Env != "development" && c.App.Env != "production" {
		return fmt.Errorf("invalid app.env: %s (must be development or production)", c.App.Env)
	}

	// Validate log level / 验证日志级别
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be console or json)", c.Log.Format)
	}

	// Validate prune interval / 验证清理间隔
	if c.Scrcpy.PruneInterval < 0 {
		return errors.New("scrcpy.prune_interval must not be negative")
	}
	if c.Scrcpy.PruneInterval > 0 && c.Scrcpy.PruneInterval < 100*time.Millisecond {
		return errors.New("scrcpy.prune_interval must be at least 100ms")
	}

	// Validate database / 验证数据库配置
	if c.Database.Enabled {
		switch c.Database.Type {
		case "sqlite", "mysql", "postgres":
		default:
			return fmt.Errorf("invalid database.type: %s (must be sqlite, mysql, or postgres)", c.Database.Type)
		}
	}

	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return errors.New("telemetry.endpoint is required when telemetry is enabled")
	}

	return nil
}

// String returns a string representation of the config (for debugging)
// String 返回配置的字符串表示（用于调试）
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{App.Addr: %s, App.Env: %s, Scrcpy.ResourceDir: %s, Scrcpy.PruneInterval: %v, Log.Level: %s, Database.Enabled: %t}",
		c.App.Addr,
		c.App.Env,
		c.Scrcpy.ResourceDir,
		c.Scrcpy.PruneInterval,
		c.Log.Level,
		c.Database.Enabled,
	)
}

// yamlScrcpy mirrors ScrcpyConfig with a human readable duration
type yamlScrcpy struct {
	ResourceDir   string         `yaml:"resource_dir"`
	PruneInterval string         `yaml:"prune_interval"`
	LockFile      string         `yaml:"lock_file"`
	Defaults      mirror.Options `yaml:"defaults"`
}

type yamlDocument struct {
	App       AppConfig       `yaml:"app"`
	Scrcpy    yamlScrcpy      `yaml:"scrcpy"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ToYAML serializes the configuration to YAML format
// ToYAML 将配置序列化为 YAML 格式
func (c *Config) ToYAML() ([]byte, error) {
	doc := yamlDocument{
		App: c.App,
		Scrcpy: yamlScrcpy{
			ResourceDir:   c.Scrcpy.ResourceDir,
			PruneInterval: c.Scrcpy.PruneInterval.String(),
			LockFile:      c.Scrcpy.LockFile,
			Defaults:      c.Scrcpy.Defaults,
		},
		Log:       c.Log,
		Database:  c.Database,
		Telemetry: c.Telemetry,
	}
	return yaml.Marshal(&doc)
}

// Equal compares two configs for equality
// Equal 比较两个配置是否相等
func (c *Config) Equal(other *Config) bool {
	if c == nil || other == nil {
		return c == other
	}
	return reflect.DeepEqual(*c, *other)
}
