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
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Handler provides HTTP handlers for the session history.
// Handler 提供会话历史的 HTTP 处理器。
type Handler struct {
	repo *Repository
}

// NewHandler creates a new Handler instance. repo may be nil when the
// database is disabled.
// NewHandler 创建一个新的 Handler 实例。数据库禁用时 repo 可以为 nil。
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// ListSessionEventsRequest represents the request for listing session events.
// ListSessionEventsRequest 表示获取会话事件列表的请求。
type ListSessionEventsRequest struct {
	Page      int    `json:"page" form:"page" binding:"min=1"`
	Size      int    `json:"size" form:"size" binding:"min=1,max=100"`
	SessionID string `json:"session_id" form:"session_id"`
	DeviceID  string `json:"device_id" form:"device_id"`
	Event     string `json:"event" form:"event"`
	StartTime string `json:"start_time" form:"start_time"`
	EndTime   string `json:"end_time" form:"end_time"`
}

// SessionEventList is the data of ListSessionEventsResponse.
type SessionEventList struct {
	Total  int64           `json:"total"`
	Events []*SessionEvent `json:"events"`
}

// ListSessionEventsResponse represents the response for listing session events.
// ListSessionEventsResponse 表示获取会话事件列表的响应。
type ListSessionEventsResponse struct {
	ErrorMsg string            `json:"error_msg"`
	Data     *SessionEventList `json:"data"`
}

// ListSessionEvents handles GET /api/v1/sessions/history - lists session events with filtering and pagination.
// ListSessionEvents 处理 GET /api/v1/sessions/history - 获取会话事件列表（支持过滤和分页）。
// @Tags sessions
// @Param request query ListSessionEventsRequest true "查询参数"
// @Produce json
// @Success 200 {object} ListSessionEventsResponse
// @Router /api/v1/sessions/history [get]
func (h *Handler) ListSessionEvents(c *gin.Context) {
	if h.repo == nil {
		c.JSON(getStatusCodeForError(ErrHistoryDisabled), ListSessionEventsResponse{ErrorMsg: ErrHistoryDisabled.Error()})
		return
	}

	req := &ListSessionEventsRequest{Page: 1, Size: 20}
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, ListSessionEventsResponse{ErrorMsg: err.Error()})
		return
	}

	// Parse time filters - 解析时间过滤条件
	var startTime, endTime *time.Time
	if req.StartTime != "" {
		t, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, ListSessionEventsResponse{
				ErrorMsg: "无效的开始时间格式，请使用 RFC3339 格式 / Invalid start_time format, use RFC3339",
			})
			return
		}
		startTime = &t
	}
	if req.EndTime != "" {
		t, err := time.Parse(time.RFC3339, req.EndTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, ListSessionEventsResponse{
				ErrorMsg: "无效的结束时间格式，请使用 RFC3339 格式 / Invalid end_time format, use RFC3339",
			})
			return
		}
		endTime = &t
	}

	events, total, err := h.repo.ListSessionEvents(c.Request.Context(), &SessionEventFilter{
		SessionID: req.SessionID,
		DeviceID:  req.DeviceID,
		Event:     req.Event,
		StartTime: startTime,
		EndTime:   endTime,
		Page:      req.Page,
		PageSize:  req.Size,
	})
	if err != nil {
		c.JSON(getStatusCodeForError(err), ListSessionEventsResponse{ErrorMsg: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ListSessionEventsResponse{
		Data: &SessionEventList{Total: total, Events: events},
	})
}

// getStatusCodeForError returns the appropriate HTTP status code for an error.
// getStatusCodeForError 根据错误返回适当的 HTTP 状态码。
func getStatusCodeForError(err error) int {
	switch {
	case errors.Is(err, ErrHistoryDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrSessionIDEmpty), errors.Is(err, ErrEventEmpty):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
