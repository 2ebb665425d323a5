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

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// Launcher defaults.
// 启动器默认值。
const (
	// DefaultOutputTailSize is how many bytes of scrcpy output are kept per session.
	// DefaultOutputTailSize 是每个会话保留的 scrcpy 输出字节数。
	DefaultOutputTailSize = 64 * 1024

	// DefaultProbeTimeout bounds `scrcpy --version`.
	// DefaultProbeTimeout 是 `scrcpy --version` 的超时时间。
	DefaultProbeTimeout = 10 * time.Second

	// outputWaitDelay bounds how long the reaper waits for output pipes after the
	// process exited. adb may inherit scrcpy's stdout and keep it open.
	outputWaitDelay = 2 * time.Second
)

// Handle is an owned reference to one launched scrcpy process.
// Handle 是对一个已启动 scrcpy 进程的持有引用。
type Handle interface {
	// PID returns the native process id.
	// PID 返回操作系统进程 ID。
	PID() int

	// Exited polls the exit status without blocking.
	// Exited 以非阻塞方式查询进程是否已退出。
	Exited() (bool, error)

	// Terminate sends one kill signal and returns without waiting for exit.
	// Terminate 发送一次终止信号，不等待进程退出。
	Terminate() error
}

// Launcher spawns scrcpy processes.
// Launcher 负责启动 scrcpy 进程。
type Launcher interface {
	// Launch starts scrcpy for deviceID (empty means no -s flag) with opts.
	// Launch 使用 opts 为 deviceID 启动 scrcpy（为空表示不传 -s）。
	Launch(deviceID string, opts Options) (Handle, error)
}

// PathResolver locates the bundled binaries.
// PathResolver 定位随应用打包的二进制文件。
type PathResolver interface {
	ScrcpyPath() (string, error)
	ScrcpyDir() (string, error)
	AdbDir() (string, error)
}

// ExecLauncher launches scrcpy with os/exec.
// ExecLauncher 使用 os/exec 启动 scrcpy。
type ExecLauncher struct {
	resolver PathResolver
	tailSize int
}

// NewExecLauncher creates a launcher backed by resolver.
// NewExecLauncher 创建一个基于 resolver 的启动器。
func NewExecLauncher(resolver PathResolver) *ExecLauncher {
	return &ExecLauncher{
		resolver: resolver,
		tailSize: DefaultOutputTailSize,
	}
}

// Launch implements Launcher.
// Launch 实现 Launcher 接口。
func (l *ExecLauncher) Launch(deviceID string, opts Options) (Handle, error) {
	cmd, err := l.buildCommand(deviceID, opts)
	if err != nil {
		return nil, err
	}

	// Capture stdout and stderr so scrcpy never blocks on a full pipe
	// 捕获标准输出和标准错误，避免 scrcpy 因管道写满而阻塞
	tail := newTailBuffer(l.tailSize)
	cmd.Stdout = tail
	cmd.Stderr = tail
	cmd.WaitDelay = outputWaitDelay
	setProcGroupAttr(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunchFailure, err)
	}

	return newExecHandle(cmd, tail), nil
}

// buildCommand resolves paths and assembles the scrcpy command line.
// buildCommand 解析路径并组装 scrcpy 命令行。
func (l *ExecLauncher) buildCommand(deviceID string, opts Options) (*exec.Cmd, error) {
	scrcpyPath, err := l.resolver.ScrcpyPath()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunchFailure, err)
	}
	scrcpyDir, err := l.resolver.ScrcpyDir()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunchFailure, err)
	}

	cmd := exec.Command(scrcpyPath, BuildArgs(deviceID, opts)...)

	// scrcpy loads its libraries from its own directory
	// scrcpy 从自身目录加载依赖库
	cmd.Dir = scrcpyDir

	env := os.Environ()
	if adbDir, err := l.resolver.AdbDir(); err == nil {
		env = PrependPath(env, adbDir)
	}
	cmd.Env = env

	return cmd, nil
}

// Available reports whether the scrcpy binary can be resolved.
// Available 返回 scrcpy 二进制文件是否可以被找到。
func (l *ExecLauncher) Available() bool {
	_, err := l.resolver.ScrcpyPath()
	return err == nil
}

// Version runs `scrcpy --version` and returns its trimmed output.
// Version 执行 `scrcpy --version` 并返回去除首尾空白的输出。
func (l *ExecLauncher) Version(ctx context.Context) (string, error) {
	scrcpyPath, err := l.resolver.ScrcpyPath()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLaunchFailure, err)
	}
	scrcpyDir, err := l.resolver.ScrcpyDir()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLaunchFailure, err)
	}

	probeCtx, cancel := context.WithTimeout(ctx, DefaultProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, scrcpyPath, "--version")
	cmd.Dir = scrcpyDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("scrcpy --version failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// BuildArgs returns the scrcpy argument vector for deviceID and opts.
// BuildArgs 返回 deviceID 与 opts 对应的 scrcpy 参数列表。
func BuildArgs(deviceID string, opts Options) []string {
	var args []string
	if deviceID != "" {
		args = append(args, "-s", deviceID)
	}
	return append(args, opts.Args()...)
}

// PrependPath returns a copy of env with dir prepended to PATH.
// exec keeps the last duplicate key, so the last PATH entry is the one rewritten.
// PrependPath 返回将 dir 添加到 PATH 开头的 env 副本。
func PrependPath(env []string, dir string) []string {
	out := make([]string, len(env), len(env)+1)
	copy(out, env)

	idx := -1
	for i, kv := range out {
		key, _, ok := strings.Cut(kv, "=")
		if ok && isPathKey(key) {
			idx = i
		}
	}

	if idx < 0 {
		return append(out, "PATH="+dir)
	}
	key, value, _ := strings.Cut(out[idx], "=")
	if value == "" {
		out[idx] = key + "=" + dir
	} else {
		out[idx] = key + "=" + dir + string(os.PathListSeparator) + value
	}
	return out
}

// isPathKey reports whether key names the executable search path.
func isPathKey(key string) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(key, "PATH")
	}
	return key == "PATH"
}

// execHandle is the Handle of a process started by ExecLauncher.
// A reaper goroutine waits on the process so it never lingers as a zombie.
// execHandle 是 ExecLauncher 启动进程的句柄，回收 goroutine 确保进程不会成为僵尸进程。
type execHandle struct {
	cmd     *exec.Cmd
	output  *tailBuffer
	done    chan struct{}
	waitErr error
}

func newExecHandle(cmd *exec.Cmd, output *tailBuffer) *execHandle {
	h := &execHandle{
		cmd:    cmd,
		output: output,
		done:   make(chan struct{}),
	}
	go h.reap()
	return h
}

func (h *execHandle) reap() {
	h.waitErr = h.cmd.Wait()
	close(h.done)
}

func (h *execHandle) PID() int {
	return h.cmd.Process.Pid
}

func (h *execHandle) Exited() (bool, error) {
	select {
	case <-h.done:
		return true, nil
	default:
		return false, nil
	}
}

func (h *execHandle) Terminate() error {
	err := h.cmd.Process.Kill()
	if err == nil || errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return fmt.Errorf("%w: pid %d: %v", ErrTerminationFailure, h.PID(), err)
}

// ExitSummary describes how the process ended; empty while it is running.
// ExitSummary 描述进程的退出方式；运行中时返回空字符串。
func (h *execHandle) ExitSummary() string {
	select {
	case <-h.done:
	default:
		return ""
	}
	if h.cmd.ProcessState != nil {
		return h.cmd.ProcessState.String()
	}
	if h.waitErr != nil {
		return h.waitErr.Error()
	}
	return "exited"
}

// Output returns the captured tail of stdout and stderr.
// Output 返回捕获的标准输出和标准错误尾部内容。
func (h *execHandle) Output() string {
	return h.output.String()
}
