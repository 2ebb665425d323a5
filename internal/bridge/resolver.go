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

// Package bridge locates the scrcpy and adb binaries bundled with the daemon.
// bridge 包用于定位随守护进程打包的 scrcpy 和 adb 二进制文件。
package bridge

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Errors
// 错误定义
var (
	ErrResourcesNotFound = errors.New("bridge: resources directory not found")
	ErrNotFound          = errors.New("bridge: bundled file not found")
)

// Layout of the resources directory
// 资源目录布局
const (
	ResourcesDirName = "resources"
	ScrcpyDirName    = "scrcpy"
	AdbDirName       = "adb"
	ServerFileName   = "scrcpy-server"
)

// Resolver resolves bundled binary paths. The base directory is searched on
// every call, so resources installed after startup are picked up.
// Resolver 解析打包的二进制文件路径。每次调用都会重新查找基础目录，
// 因此启动后安装的资源也能被找到。
type Resolver struct {
	configured string
	executable func() (string, error)
	workDir    func() (string, error)
}

// NewResolver creates a Resolver. configuredDir, when non-empty, is tried first.
// NewResolver 创建 Resolver。configuredDir 非空时优先使用。
func NewResolver(configuredDir string) *Resolver {
	return &Resolver{
		configured: configuredDir,
		executable: os.Executable,
		workDir:    os.Getwd,
	}
}

// Candidates returns the directories searched for resources, in order.
// Candidates 按顺序返回查找资源的目录列表。
func (r *Resolver) Candidates() []string {
	var dirs []string
	if r.configured != "" {
		dirs = append(dirs, r.configured)
	}
	if exe, err := r.executable(); err == nil {
		exeDir := filepath.Dir(exe)
		dirs = append(dirs,
			filepath.Join(exeDir, ResourcesDirName),
			filepath.Join(exeDir, "..", "..", "..", ResourcesDirName),
		)
	}
	if wd, err := r.workDir(); err == nil {
		dirs = append(dirs, filepath.Join(wd, ResourcesDirName))
	}
	return dirs
}

// BaseDir returns the first existing resources directory.
// BaseDir 返回第一个存在的资源目录。
func (r *Resolver) BaseDir() (string, error) {
	candidates := r.Candidates()
	for _, dir := range candidates {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		if abs, err := filepath.Abs(dir); err == nil {
			return filepath.Clean(abs), nil
		}
		return filepath.Clean(dir), nil
	}
	return "", fmt.Errorf("%w: searched %v", ErrResourcesNotFound, candidates)
}

// ScrcpyDir returns the directory holding scrcpy and its libraries.
// ScrcpyDir 返回存放 scrcpy 及其依赖库的目录。
func (r *Resolver) ScrcpyDir() (string, error) {
	return r.dir(ScrcpyDirName)
}

// AdbDir returns the directory holding adb and its libraries.
// AdbDir 返回存放 adb 及其依赖库的目录。
func (r *Resolver) AdbDir() (string, error) {
	return r.dir(AdbDirName)
}

// ScrcpyPath returns the scrcpy executable.
// ScrcpyPath 返回 scrcpy 可执行文件路径。
func (r *Resolver) ScrcpyPath() (string, error) {
	return r.file(ScrcpyDirName, executableName("scrcpy"))
}

// AdbPath returns the adb executable.
// AdbPath 返回 adb 可执行文件路径。
func (r *Resolver) AdbPath() (string, error) {
	return r.file(AdbDirName, executableName("adb"))
}

// ServerPath returns the scrcpy-server file pushed to the device.
// ServerPath 返回推送到设备的 scrcpy-server 文件路径。
func (r *Resolver) ServerPath() (string, error) {
	return r.file(ScrcpyDirName, ServerFileName)
}

func (r *Resolver) dir(name string) (string, error) {
	base, err := r.BaseDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, name)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: directory %s", ErrNotFound, dir)
	}
	return dir, nil
}

func (r *Resolver) file(dirName, fileName string) (string, error) {
	dir, err := r.dir(dirName)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fileName)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return path, nil
}

func executableName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}
