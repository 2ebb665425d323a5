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

//go:build !windows

package mirror

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeScrcpyScript = `#!/bin/sh
if [ "$1" = "--version" ]; then
  echo "scrcpy 2.4 <https://github.com/Genymobile/scrcpy>"
  exit 0
fi
echo "args: $*"
echo "path: $PATH"
exec sleep 30
`

// staticResolver serves fixed paths.
type staticResolver struct {
	scrcpyPath string
	scrcpyDir  string
	adbDir     string
	err        error
}

func (r staticResolver) ScrcpyPath() (string, error) { return r.scrcpyPath, r.err }
func (r staticResolver) ScrcpyDir() (string, error) { return r.scrcpyDir, r.err }
func (r staticResolver) AdbDir() (string, error) { return r.adbDir, r.err }

func writeFakeScrcpy(t *testing.T) staticResolver {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "scrcpy")
	require.NoError(t, os.WriteFile(path, []byte(fakeScrcpyScript), 0755))

	adbDir := filepath.Join(dir, "adb")
	require.NoError(t, os.MkdirAll(adbDir, 0755))
	return staticResolver{scrcpyPath: path, scrcpyDir: dir, adbDir: adbDir}
}

// TestExecLauncherLifecycle launches a stand-in scrcpy and terminates it
// TestExecLauncherLifecycle 启动替身 scrcpy 并终止它
func TestExecLauncherLifecycle(t *testing.T) {
	resolver := writeFakeScrcpy(t)
	l := NewExecLauncher(resolver)

	h, err := l.Launch("emulator-5554", Options{MaxSize: 1024, StayAwake: true})
	require.NoError(t, err)
	require.Greater(t, h.PID(), 0)

	exited, err := h.Exited()
	require.NoError(t, err)
	assert.False(t, exited)

	reporter, ok := h.(exitReporter)
	require.True(t, ok)
	require.Eventually(t, func() bool {
		return strings.Contains(reporter.Output(), "path: ")
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, h.Terminate())
	require.Eventually(t, func() bool {
		exited, _ := h.Exited()
		return exited
	}, 5*time.Second, 20*time.Millisecond)

	// A second signal on an exited process is not an error
	// 向已退出的进程再次发送信号不是错误
	require.NoError(t, h.Terminate())

	assert.NotEmpty(t, reporter.ExitSummary())
	out := reporter.Output()
	assert.Contains(t, out, "args: -s emulator-5554 --max-size 1024 --stay-awake")
	assert.Contains(t, out, "path: "+resolver.adbDir+string(os.PathListSeparator))
}

// TestExecLauncherNaturalExit tests that Exited observes a process ending on its own
// TestExecLauncherNaturalExit 测试 Exited 能观察到进程自行结束
func TestExecLauncherNaturalExit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scrcpy")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\necho bye >&2\nexit 3\n"), 0755))

	h, err := NewExecLauncher(staticResolver{scrcpyPath: path, scrcpyDir: dir, adbDir: dir}).Launch("", Options{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		exited, _ := h.Exited()
		return exited
	}, 5*time.Second, 20*time.Millisecond)

	reporter := h.(exitReporter)
	assert.Contains(t, reporter.ExitSummary(), "3")
	assert.Equal(t, "bye", strings.TrimSpace(reporter.Output()))
}

func TestExecLauncherLaunchFailure(t *testing.T) {
	t.Run("resolver error", func(t *testing.T) {
		l := NewExecLauncher(staticResolver{err: errors.New("scrcpy executable not found")})
		_, err := l.Launch("A", DefaultOptions())
		assert.ErrorIs(t, err, ErrLaunchFailure)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("not executable", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "scrcpy")
		require.NoError(t, os.WriteFile(path, []byte("plain text"), 0644))

		l := NewExecLauncher(staticResolver{scrcpyPath: path, scrcpyDir: dir, adbDir: dir})
		_, err := l.Launch("A", DefaultOptions())
		assert.ErrorIs(t, err, ErrLaunchFailure)
	})
}

// TestExecLauncherProbes tests Available and Version
// TestExecLauncherProbes 测试 Available 和 Version
func TestExecLauncherProbes(t *testing.T) {
	l := NewExecLauncher(writeFakeScrcpy(t))
	assert.True(t, l.Available())

	version, err := l.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "scrcpy 2.4 <https://github.com/Genymobile/scrcpy>", version)

	missing := NewExecLauncher(staticResolver{err: errors.New("missing")})
	assert.False(t, missing.Available())
	_, err = missing.Version(context.Background())
	assert.ErrorIs(t, err, ErrLaunchFailure)
}

// TestServiceWithExecLauncher runs the facade against real processes
// TestServiceWithExecLauncher 使用真实进程测试会话门面
func TestServiceWithExecLauncher(t *testing.T) {
	ctx := context.Background()
	s := NewService(NewExecLauncher(writeFakeScrcpy(t)), NewRegistry())

	id, err := s.Start(ctx, "emulator-5554", DefaultOptions())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "session_emulator-5554_"))

	status, err := s.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, status)

	assert.True(t, s.Available())
	version, err := s.Version(ctx)
	require.NoError(t, err)
	assert.Contains(t, version, "scrcpy")

	assert.Equal(t, 1, s.Shutdown(ctx))
	status, err = s.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusStopped, status)
}
