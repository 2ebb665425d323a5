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

package bridge

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exe(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// makeResources builds a resources tree under root.
func makeResources(t *testing.T, root string, files ...string) string {
	t.Helper()
	base := filepath.Join(root, ResourcesDirName)
	require.NoError(t, os.MkdirAll(filepath.Join(base, ScrcpyDirName), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(base, AdbDirName), 0755))
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(base, f), []byte("x"), 0755))
	}
	return base
}

func isolated(r *Resolver) *Resolver {
	missing := func() (string, error) { return "", errors.New("unavailable") }
	r.executable = missing
	r.workDir = missing
	return r
}

// TestResolverConfiguredDir tests resolution from the configured directory
// TestResolverConfiguredDir 测试从配置目录解析路径
func TestResolverConfiguredDir(t *testing.T) {
	base := makeResources(t, t.TempDir(),
		filepath.Join(ScrcpyDirName, exe("scrcpy")),
		filepath.Join(ScrcpyDirName, ServerFileName),
		filepath.Join(AdbDirName, exe("adb")),
	)
	r := isolated(NewResolver(base))

	got, err := r.BaseDir()
	require.NoError(t, err)
	assert.Equal(t, base, got)

	scrcpyPath, err := r.ScrcpyPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, ScrcpyDirName, exe("scrcpy")), scrcpyPath)

	scrcpyDir, err := r.ScrcpyDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, ScrcpyDirName), scrcpyDir)

	adbPath, err := r.AdbPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, AdbDirName, exe("adb")), adbPath)

	adbDir, err := r.AdbDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, AdbDirName), adbDir)

	serverPath, err := r.ServerPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, ScrcpyDirName, ServerFileName), serverPath)
}

func TestResolverMissingFiles(t *testing.T) {
	base := makeResources(t, t.TempDir())
	r := isolated(NewResolver(base))

	_, err := r.ScrcpyPath()
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.AdbPath()
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.ServerPath()
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.AdbDir()
	assert.NoError(t, err)
}

func TestResolverNoResources(t *testing.T) {
	r := isolated(NewResolver(filepath.Join(t.TempDir(), "nope")))

	_, err := r.BaseDir()
	assert.ErrorIs(t, err, ErrResourcesNotFound)
	_, err = r.ScrcpyDir()
	assert.ErrorIs(t, err, ErrResourcesNotFound)
}

// TestResolverFallbackOrder tests that the executable directory is used before the working directory
// TestResolverFallbackOrder 测试可执行文件目录优先于工作目录
func TestResolverFallbackOrder(t *testing.T) {
	exeRoot := t.TempDir()
	wdRoot := t.TempDir()
	exeBase := makeResources(t, exeRoot)
	makeResources(t, wdRoot)

	r := NewResolver("")
	r.executable = func() (string, error) { return filepath.Join(exeRoot, exe("scrcpyx")), nil }
	r.workDir = func() (string, error) { return wdRoot, nil }

	got, err := r.BaseDir()
	require.NoError(t, err)
	assert.Equal(t, exeBase, got)

	require.NoError(t, os.RemoveAll(exeBase))
	got, err = r.BaseDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wdRoot, ResourcesDirName), got)
}

func TestResolverCandidates(t *testing.T) {
	r := NewResolver("/etc/scrcpyx/resources")
	r.executable = func() (string, error) { return "/opt/scrcpyx/bin/scrcpyx", nil }
	r.workDir = func() (string, error) { return "/home/u", nil }

	assert.Equal(t, []string{
		"/etc/scrcpyx/resources",
		filepath.Join("/opt/scrcpyx/bin", ResourcesDirName),
		filepath.Join("/opt/scrcpyx/bin", "..", "..", "..", ResourcesDirName),
		filepath.Join("/home/u", ResourcesDirName),
	}, r.Candidates())
}
