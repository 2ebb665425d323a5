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

import "errors"

// Error definitions for mirroring session management.
// 镜像会话管理的错误定义。
var (
	// ErrLaunchFailure indicates scrcpy could not be found, executed or spawned.
	// ErrLaunchFailure 表示 scrcpy 无法找到、执行或启动。
	ErrLaunchFailure = errors.New("mirror: failed to launch scrcpy")

	// ErrLockFailure indicates the session registry is unusable because a panic
	// escaped one of its critical sections.
	// ErrLockFailure 表示会话注册表因临界区内发生 panic 而不可用。
	ErrLockFailure = errors.New("mirror: session registry lock poisoned")

	// ErrSessionNotFound indicates the session id is not tracked.
	// ErrSessionNotFound 表示会话 ID 未被跟踪。
	ErrSessionNotFound = errors.New("mirror: session not found")

	// ErrTerminationFailure indicates the OS refused the kill signal.
	// ErrTerminationFailure 表示操作系统拒绝了终止信号。
	ErrTerminationFailure = errors.New("mirror: failed to terminate process")

	// ErrDeviceIDEmpty indicates a session was requested without a device id.
	// ErrDeviceIDEmpty 表示请求会话时未提供设备 ID。
	ErrDeviceIDEmpty = errors.New("mirror: device id cannot be empty")

	// ErrServiceClosed indicates the service was shut down and accepts no new sessions.
	// ErrServiceClosed 表示服务已关闭，不再接受新会话。
	ErrServiceClosed = errors.New("mirror: session service is shut down")
)
