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

import "errors"

// Error definitions for session history operations.
// 会话历史操作的错误定义。
var (
	// ErrSessionIDEmpty indicates the session ID is empty.
	// ErrSessionIDEmpty 表示会话 ID 为空。
	ErrSessionIDEmpty = errors.New("audit: session ID cannot be empty")
	// ErrEventEmpty indicates the event type is empty.
	// ErrEventEmpty 表示事件类型为空。
	ErrEventEmpty = errors.New("audit: event cannot be empty")
	// ErrHistoryDisabled indicates no database is configured.
	// ErrHistoryDisabled 表示未配置数据库。
	ErrHistoryDisabled = errors.New("audit: session history is disabled")
)
