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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadConfig tests configuration loading
// TestLoadConfig 测试配置加载
func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
app:
  env: development
  addr: "127.0.0.1:9000"

scrcpy:
  resource_dir: /opt/scrcpyx/resources
  prune_interval: 2s
  lock_file: /tmp/test-scrcpyx.lock
  defaults:
    max_size: 1024
    bit_rate: 4000000
    stay_awake: true

log:
  level: debug
  format: json
  file: /tmp/scrcpyx.log
  max_size: 50

database:
  enabled: true
  type: sqlite
  sqlite_path: /tmp/scrcpyx.db
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "127.0.0.1:9000", cfg.App.Addr)
	assert.Equal(t, DefaultAPIPrefix, cfg.App.APIPrefix)
	assert.Equal(t, "/opt/scrcpyx/resources", cfg.Scrcpy.ResourceDir)
	assert.Equal(t, 2*time.Second, cfg.Scrcpy.PruneInterval)
	assert.Equal(t, "/tmp/test-scrcpyx.lock", cfg.Scrcpy.LockFile)
	assert.Equal(t, uint32(1024), cfg.Scrcpy.Defaults.MaxSize)
	assert.Equal(t, uint32(4000000), cfg.Scrcpy.Defaults.BitRate)
	assert.Equal(t, uint32(60), cfg.Scrcpy.Defaults.MaxFPS)
	assert.True(t, cfg.Scrcpy.Defaults.StayAwake)
	assert.False(t, cfg.Scrcpy.Defaults.AlwaysOnTop)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 50, cfg.Log.MaxSize)
	assert.Equal(t, DefaultLogMaxBackups, cfg.Log.MaxBackups)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "/tmp/scrcpyx.db", cfg.Database.SQLitePath)

	require.NoError(t, cfg.Validate())
}

// TestLoadConfigDefaults tests that a missing file falls back to defaults
// TestLoadConfigDefaults 测试配置文件缺失时使用默认值
func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultAppName, cfg.App.Name)
	assert.Equal(t, DefaultEnv, cfg.App.Env)
	assert.Equal(t, DefaultAddr, cfg.App.Addr)
	assert.Equal(t, DefaultPruneInterval, cfg.Scrcpy.PruneInterval)
	assert.Equal(t, DefaultLockFile(), cfg.Scrcpy.LockFile)
	assert.Equal(t, uint32(1920), cfg.Scrcpy.Defaults.MaxSize)
	assert.Equal(t, uint32(8000000), cfg.Scrcpy.Defaults.BitRate)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, DefaultDatabaseType, cfg.Database.Type)
	assert.False(t, cfg.Telemetry.Enabled)

	require.NoError(t, cfg.Validate())
}

// TestLoadConfigMalformed tests that an unreadable existing file is an error
// TestLoadConfigMalformed 测试存在但格式错误的配置文件返回错误
func TestLoadConfigMalformed(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("app: [unterminated"), 0644))

	_, err := Load(configPath)
	require.Error(t, err)
}

// TestLoadConfigFromEnv tests environment variable overrides
// TestLoadConfigFromEnv 测试环境变量覆盖
func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SCRCPYX_APP_ADDR", "0.0.0.0:8088")
	t.Setenv("SCRCPYX_LOG_LEVEL", "warn")
	t.Setenv("SCRCPYX_SCRCPY_PRUNE_INTERVAL", "30s")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8088", cfg.App.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 30*time.Second, cfg.Scrcpy.PruneInterval)
}

// TestLoadConfigPathFromEnv tests SCRCPYX_CONFIG_PATH when no path is given
// TestLoadConfigPathFromEnv 测试未指定路径时使用 SCRCPYX_CONFIG_PATH
func TestLoadConfigPathFromEnv(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("app:\n  name: from-env-path\n"), 0644))
	t.Setenv(EnvConfigPath, configPath)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env-path", cfg.App.Name)
}

// TestLoadWithPriority tests that command line arguments win over the file
// TestLoadWithPriority 测试命令行参数优先于配置文件
func TestLoadWithPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("app:\n  addr: 127.0.0.1:1111\nlog:\n  level: error\n"), 0644))
	t.Setenv("SCRCPYX_LOG_LEVEL", "warn")

	cfg, err := LoadWithPriority(configPath, map[string]any{
		"app.addr": "127.0.0.1:2222",
	})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:2222", cfg.App.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)
}

// TestValidateConfig tests configuration validation
// TestValidateConfig 测试配置验证
func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		cfg, err := LoadFromYAML([]byte("{}"))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "empty addr", mutate: func(c *Config) { c.App.Addr = "" }, wantErr: "app.addr"},
		{name: "bad env", mutate: func(c *Config) { c.App.Env = "staging" }, wantErr: "app.env"},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "trace" }, wantErr: "log level"},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "log format"},
		{name: "negative prune interval", mutate: func(c *Config) { c.Scrcpy.PruneInterval = -time.Second }, wantErr: "prune_interval"},
		{name: "tiny prune interval", mutate: func(c *Config) { c.Scrcpy.PruneInterval = time.Millisecond }, wantErr: "prune_interval"},
		{name: "disabled pruning", mutate: func(c *Config) { c.Scrcpy.PruneInterval = 0 }},
		{name: "bad database type", mutate: func(c *Config) {
			c.Database.Enabled = true
			c.Database.Type = "oracle"
		}, wantErr: "database.type"},
		{name: "database type ignored when disabled", mutate: func(c *Config) { c.Database.Type = "oracle" }},
		{name: "telemetry without endpoint", mutate: func(c *Config) {
			c.Telemetry.Enabled = true
			c.Telemetry.Endpoint = ""
		}, wantErr: "telemetry.endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// TestConfigToYAMLReadable tests that durations are written in human form
// TestConfigToYAMLReadable 测试时长以可读形式输出
func TestConfigToYAMLReadable(t *testing.T) {
	cfg, err := LoadFromYAML([]byte("scrcpy:\n  prune_interval: 1m30s\n"))
	require.NoError(t, err)

	data, err := cfg.ToYAML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "prune_interval: 1m30s")
	assert.Contains(t, string(data), "max_size: 1920")
}

// TestConfigString tests the debug representation
// TestConfigString 测试调试字符串
func TestConfigString(t *testing.T) {
	cfg, err := LoadFromYAML([]byte("{}"))
	require.NoError(t, err)

	s := cfg.String()
	assert.Contains(t, s, DefaultAddr)
	assert.Contains(t, s, "5s")
}

// TestConfigEqual tests nil handling of Equal
// TestConfigEqual 测试 Equal 对 nil 的处理
func TestConfigEqual(t *testing.T) {
	var a, b *Config
	assert.True(t, a.Equal(b))

	cfg, err := LoadFromYAML([]byte("{}"))
	require.NoError(t, err)
	assert.False(t, cfg.Equal(nil))
	assert.True(t, cfg.Equal(cfg))
}
