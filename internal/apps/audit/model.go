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

// Package audit keeps the history of mirroring session lifecycle events.
// 审计包保存镜像会话生命周期事件的历史记录。
package audit

import "time"

// SessionEvent is one lifecycle event of a mirroring session.
// SessionEvent 表示镜像会话的一个生命周期事件。
type SessionEvent struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	SessionID string    `json:"session_id" gorm:"size:200;not null;index"`
	DeviceID  string    `json:"device_id" gorm:"size:150;not null;index"`
	Event     string    `json:"event" gorm:"size:20;not null;index"`
	PID       int       `json:"pid"`
	Message   string    `json:"message" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// TableName specifies the table name for the SessionEvent model.
// TableName 指定 SessionEvent 模型的表名。
func (SessionEvent) TableName() string {
	return "session_events"
}

// SessionEventFilter represents filter criteria for querying session events.
// SessionEventFilter 表示查询会话事件的过滤条件。
type SessionEventFilter struct {
	SessionID string
	DeviceID  string
	Event     string
	StartTime *time.Time
	EndTime   *time.Time
	Page      int
	PageSize  int
}
