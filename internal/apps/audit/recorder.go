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

package audit

import (
	"context"

	"github.com/scrcpyx/scrcpyx/internal/logger"
	"github.com/scrcpyx/scrcpyx/internal/mirror"
)

// Recorder returns a mirror.EventHandler that stores every event in repo.
// A nil repo yields a handler that only logs at debug level.
// Recorder 返回一个将所有事件写入 repo 的 mirror.EventHandler。
// repo 为 nil 时返回的处理器只输出 debug 日志。
func Recorder(repo *Repository) mirror.EventHandler {
	return func(ctx context.Context, e mirror.SessionEvent) {
		if repo == nil {
			logger.DebugF(ctx, "[Audit] %s %s (device: %s, pid: %d)", e.SessionID, e.Type, e.DeviceID, e.PID)
			return
		}

		event := &SessionEvent{
			SessionID: e.SessionID,
			DeviceID:  e.DeviceID,
			Event:     string(e.Type),
			PID:       e.PID,
			Message:   e.Message,
			CreatedAt: e.At,
		}
		if err := repo.CreateSessionEvent(context.WithoutCancel(ctx), event); err != nil {
			logger.WarnF(ctx, "[Audit] Failed to record %s event for %s: %v", e.Type, e.SessionID, err)
		}
	}
}
