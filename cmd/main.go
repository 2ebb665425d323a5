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

// Package main is the entry point for the scrcpyx daemon.
// main 包是 scrcpyx 守护进程的入口点。
//
// scrcpyx runs on the host the Android devices are attached to and:
// scrcpyx 运行在连接 Android 设备的主机上，负责：
// - Launches one scrcpy mirroring window per request / 按请求启动 scrcpy 镜像窗口
// - Tracks, stops and prunes mirroring sessions / 跟踪、停止和清理镜像会话
// - Exposes the session facade over HTTP / 通过 HTTP 提供会话接口
// - Records session history / 记录会话历史
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/scrcpyx/scrcpyx/internal/apps/audit"
	"github.com/scrcpyx/scrcpyx/internal/bridge"
	"github.com/scrcpyx/scrcpyx/internal/config"
	"github.com/scrcpyx/scrcpyx/internal/db"
	"github.com/scrcpyx/scrcpyx/internal/db/migrator"
	"github.com/scrcpyx/scrcpyx/internal/logger"
	"github.com/scrcpyx/scrcpyx/internal/mirror"
	"github.com/scrcpyx/scrcpyx/internal/otel_trace"
	"github.com/scrcpyx/scrcpyx/internal/router"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// Version information, set at build time
// 版本信息，在构建时设置
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

const (
	// httpShutdownTimeout bounds how long in-flight requests may take at shutdown
	// httpShutdownTimeout 限制关闭时处理中请求的最长时间
	httpShutdownTimeout = 5 * time.Second
)

// ErrAlreadyRunning is returned when another daemon holds the lock file
// ErrAlreadyRunning 表示另一个守护进程持有锁文件
var ErrAlreadyRunning = errors.New("scrcpyx: daemon already running (lock held by another process)")

// Daemon wires the session service, history storage and HTTP server together.
// Daemon 将会话服务、历史存储和 HTTP 服务组装在一起。
type Daemon struct {
	cfg *config.Config

	lock     *flock.Flock
	database *gorm.DB
	service  *mirror.Service
	server   *http.Server
	listener net.Listener

	// serveErr receives the result of http.Server.Serve
	// serveErr 接收 http.Server.Serve 的返回结果
	serveErr chan error

	shutdownOnce sync.Once
}

// NewDaemon creates a daemon for cfg. Nothing is started until Start.
// NewDaemon 根据 cfg 创建守护进程，调用 Start 前不会启动任何组件。
func NewDaemon(cfg *config.Config) *Daemon {
	return &Daemon{cfg: cfg, serveErr: make(chan error, 1)}
}

// Start acquires the single-instance lock, opens storage and begins serving HTTP.
// Start 获取单实例锁、打开存储并开始提供 HTTP 服务。
func (d *Daemon) Start(ctx context.Context) error {
	// Step 1: single-instance lock
	// 步骤 1：单实例锁
	d.lock = flock.New(d.cfg.Scrcpy.LockFile)
	locked, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring lock %s: %w", d.cfg.Scrcpy.LockFile, err)
	}
	if !locked {
		return ErrAlreadyRunning
	}

	// Step 2: session history storage
	// 步骤 2：会话历史存储
	d.database, err = db.Open(ctx, d.cfg.Database)
	if err != nil {
		d.releaseLock()
		return err
	}
	if err := migrator.Migrate(ctx, d.database); err != nil {
		d.closeDatabase(ctx)
		d.releaseLock()
		return err
	}
	var history *audit.Repository
	if d.database != nil {
		history = audit.NewRepository(d.database)
	}

	// Step 3: session service
	// 步骤 3：会话服务
	resolver := bridge.NewResolver(d.cfg.Scrcpy.ResourceDir)
	d.service = mirror.NewService(mirror.NewExecLauncher(resolver), mirror.NewRegistry())
	d.service.SetEventHandler(audit.Recorder(history))
	d.service.StartMonitor(context.WithoutCancel(ctx), d.cfg.Scrcpy.PruneInterval)

	// Step 4: HTTP API
	// 步骤 4：HTTP API
	engine := router.New(router.Deps{
		App:      d.cfg.App,
		Service:  d.service,
		Defaults: d.cfg.Scrcpy.Defaults,
		History:  history,
	})
	d.listener, err = net.Listen("tcp", d.cfg.App.Addr)
	if err != nil {
		d.service.Shutdown(ctx)
		d.closeDatabase(ctx)
		d.releaseLock()
		return fmt.Errorf("listening on %s: %w", d.cfg.App.Addr, err)
	}
	d.server = &http.Server{Handler: engine, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		err := d.server.Serve(d.listener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		d.serveErr <- err
	}()

	logger.InfoF(ctx, "[Daemon] scrcpyx %s listening on %s", Version, d.listener.Addr())
	return nil
}

// Addr returns the bound listen address, or nil before Start.
// Addr 返回实际监听地址，Start 之前返回 nil。
func (d *Daemon) Addr() net.Addr {
	if d.listener == nil {
		return nil
	}
	return d.listener.Addr()
}

// Done delivers the HTTP server's terminal error, nil on a clean close.
// Done 返回 HTTP 服务的终止错误，正常关闭时为 nil。
func (d *Daemon) Done() <-chan error {
	return d.serveErr
}

// Shutdown stops the HTTP server, terminates every session and releases resources.
// Safe to call more than once; only the first call does work.
// Shutdown 停止 HTTP 服务、终止所有会话并释放资源，可重复调用，仅首次生效。
func (d *Daemon) Shutdown(ctx context.Context) {
	d.shutdownOnce.Do(func() {
		logger.InfoF(ctx, "[Daemon] Shutting down...")

		// Step 1: stop accepting requests
		// 步骤 1：停止接受请求
		if d.server != nil {
			httpCtx, cancel := context.WithTimeout(ctx, httpShutdownTimeout)
			if err := d.server.Shutdown(httpCtx); err != nil {
				logger.WarnF(ctx, "[Daemon] HTTP shutdown: %v", err)
			}
			cancel()
		}

		// Step 2: terminate every mirroring session
		// 步骤 2：终止所有镜像会话
		if d.service != nil {
			n := d.service.Shutdown(ctx)
			logger.InfoF(ctx, "[Daemon] Terminated %d session(s)", n)
		}

		// Step 3: release storage and the lock
		// 步骤 3：释放存储和锁
		d.closeDatabase(ctx)
		d.releaseLock()

		logger.InfoF(ctx, "[Daemon] Shutdown complete")
	})
}

func (d *Daemon) closeDatabase(ctx context.Context) {
	if err := db.Close(d.database); err != nil {
		logger.WarnF(ctx, "[Daemon] Close database: %v", err)
	}
	d.database = nil
}

func (d *Daemon) releaseLock() {
	if d.lock != nil {
		_ = d.lock.Unlock()
	}
}

// loggerConfig maps the log section onto the logger package.
// loggerConfig 将日志配置映射到 logger 包。
func loggerConfig(cfg config.LogConfig) logger.Config {
	return logger.Config{
		Level:      cfg.Level,
		Format:     cfg.Format,
		File:       cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
}

// traceConfig maps the telemetry section onto the otel_trace package.
// traceConfig 将遥测配置映射到 otel_trace 包。
func traceConfig(cfg *config.Config) otel_trace.Config {
	name := cfg.Telemetry.ServiceName
	if name == "" {
		name = cfg.App.Name
	}
	return otel_trace.Config{
		Enabled:     cfg.Telemetry.Enabled,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		ServiceName: name,
	}
}

// rootCmd is the root command for the scrcpyx CLI
// rootCmd 是 scrcpyx CLI 的根命令
var rootCmd = &cobra.Command{
	Use:   "scrcpyx",
	Short: "scrcpyx - Android screen mirroring session daemon",
	Long: `scrcpyx launches and tracks scrcpy mirroring sessions for attached Android devices.
scrcpyx 为已连接的 Android 设备启动并跟踪 scrcpy 镜像会话。

Running without a subcommand starts the HTTP daemon.
不带子命令运行时启动 HTTP 守护进程。`,
	SilenceUsage: true,
	RunE:         runServe,
}

// versionCmd shows version information
// versionCmd 显示版本信息
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information / 打印版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "scrcpyx\n")
		fmt.Fprintf(out, "  Version:    %s\n", Version)
		fmt.Fprintf(out, "  Git Commit: %s\n", GitCommit)
		fmt.Fprintf(out, "  Build Time: %s\n", BuildTime)
		fmt.Fprintf(out, "  Go Version: %s\n", runtime.Version())
		fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

// configCmd prints the effective configuration
// configCmd 打印生效的配置
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML / 以 YAML 打印生效配置",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		data, err := cfg.ToYAML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

// checkCmd probes the bundled scrcpy
// checkCmd 探测打包的 scrcpy
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether scrcpy can be run / 检查 scrcpy 是否可用",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		resolver := bridge.NewResolver(cfg.Scrcpy.ResourceDir)
		out := cmd.OutOrStdout()
		printResources(out, resolver)

		svc := mirror.NewService(mirror.NewExecLauncher(resolver), nil)
		if !svc.Available() {
			fmt.Fprintln(out, "scrcpy: not available")
			return errors.New("scrcpy is not available")
		}
		version, err := svc.Version(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "scrcpy: available\n%s\n", version)
		return nil
	},
}

// printResources prints where each bundled binary was found
// printResources 打印每个打包文件的解析路径
func printResources(out io.Writer, resolver *bridge.Resolver) {
	paths := []struct {
		name    string
		resolve func() (string, error)
	}{
		{"scrcpy", resolver.ScrcpyPath},
		{"scrcpy-server", resolver.ServerPath},
		{"adb", resolver.AdbPath},
	}
	for _, p := range paths {
		path, err := p.resolve()
		if err != nil {
			fmt.Fprintf(out, "%-14s %v\n", p.name+":", err)
			continue
		}
		fmt.Fprintf(out, "%-14s %s\n", p.name+":", path)
	}
}

// Command line flags
// 命令行参数
var (
	configFile string
	listenAddr string
	logLevel   string
)

func init() {
	// Add flags to root command
	// 向根命令添加标志
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&listenAddr, "addr", "", "HTTP listen address (overrides app.addr)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides log.level)")

	// Add subcommands
	// 添加子命令
	rootCmd.AddCommand(versionCmd, configCmd, checkCmd)
}

// loadConfig loads and validates the configuration, applying flag overrides
// loadConfig 加载并校验配置，应用命令行覆盖
func loadConfig() (*config.Config, error) {
	cmdArgs := map[string]any{}
	if listenAddr != "" {
		cmdArgs["app.addr"] = listenAddr
	}
	if logLevel != "" {
		cmdArgs["log.level"] = logLevel
	}

	cfg, err := config.LoadWithPriority(configFile, cmdArgs)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// runServe is the main entry point for the daemon
// runServe 是守护进程的主入口点
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := logger.Init(loggerConfig(cfg.Log)); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	otel_trace.Init(ctx, traceConfig(cfg))
	defer otel_trace.Shutdown(context.Background())

	daemon := NewDaemon(cfg)
	if err := daemon.Start(ctx); err != nil {
		return err
	}

	// Setup signal handling for graceful shutdown
	// 设置信号处理以实现优雅关闭
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// Wait for signal or server error
	// 等待信号或服务错误
	select {
	case sig := <-sigChan:
		logger.InfoF(ctx, "[Daemon] Received signal: %v", sig)
		daemon.Shutdown(ctx)
	case err := <-daemon.Done():
		daemon.Shutdown(ctx)
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
