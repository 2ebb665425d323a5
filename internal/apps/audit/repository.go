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

	"gorm.io/gorm"
)

// Repository provides data access operations for SessionEvent entities.
// Repository 提供 SessionEvent 实体的数据访问操作。
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new Repository instance.
// NewRepository 创建一个新的 Repository 实例。
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateSessionEvent stores one event.
// CreateSessionEvent 保存一个事件。
func (r *Repository) CreateSessionEvent(ctx context.Context, event *SessionEvent) error {
	if event.SessionID == "" {
		return ErrSessionIDEmpty
	}
	if event.Event == "" {
		return ErrEventEmpty
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// ListSessionEvents retrieves session events based on filter criteria with pagination.
// ListSessionEvents 根据过滤条件和分页获取会话事件列表。
// Returns the list of events, newest first, and the total count.
// 返回按时间倒序的事件列表和总数。
func (r *Repository) ListSessionEvents(ctx context.Context, filter *SessionEventFilter) ([]*SessionEvent, int64, error) {
	query := r.db.WithContext(ctx).Model(&SessionEvent{})

	// Apply filters - 应用过滤条件
	if filter != nil {
		if filter.SessionID != "" {
			query = query.Where("session_id = ?", filter.SessionID)
		}
		if filter.DeviceID != "" {
			query = query.Where("device_id = ?", filter.DeviceID)
		}
		if filter.Event != "" {
			query = query.Where("event = ?", filter.Event)
		}
		if filter.StartTime != nil {
			query = query.Where("created_at >= ?", *filter.StartTime)
		}
		if filter.EndTime != nil {
			query = query.Where("created_at <= ?", *filter.EndTime)
		}
	}

	// Get total count - 获取总数
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Apply pagination - 应用分页
	if filter != nil && filter.PageSize > 0 {
		offset := 0
		if filter.Page > 0 {
			offset = (filter.Page - 1) * filter.PageSize
		}
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var events []*SessionEvent
	if err := query.Order("created_at DESC").Order("id DESC").Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}
