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

// Package session exposes the mirroring session operations over HTTP.
// session 包通过 HTTP 暴露镜像会话操作。
package session

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/scrcpyx/scrcpyx/internal/logger"
	"github.com/scrcpyx/scrcpyx/internal/mirror"
)

// Handler provides HTTP handlers for mirroring sessions.
// Handler 提供镜像会话的 HTTP 处理器。
type Handler struct {
	service  *mirror.Service
	defaults mirror.Options
}

// NewHandler creates a new Handler. defaults are the options applied when a
// start request omits them.
// NewHandler 创建一个新的 Handler。defaults 是启动请求未提供选项时使用的值。
func NewHandler(service *mirror.Service, defaults mirror.Options) *Handler {
	return &Handler{service: service, defaults: defaults}
}

// ==================== Request/Response Types 请求/响应类型 ====================

// StartSessionRequest represents the request for starting a session.
// StartSessionRequest 表示启动会话的请求。
type StartSessionRequest struct {
	DeviceID string               `json:"device_id"`
	Options  *mirror.OptionsPatch `json:"options"`
}

// Response is the envelope of every session endpoint.
// Response 是所有会话接口的响应封装。
type Response struct {
	ErrorMsg string `json:"error_msg"`
	Data     any    `json:"data"`
}

// StartSessionData is returned by StartSession.
type StartSessionData struct {
	SessionID string `json:"session_id"`
}

// StopSessionData is returned by StopSession.
type StopSessionData struct {
	Stopped bool `json:"stopped"`
}

// StopAllData is returned by StopAllSessions.
type StopAllData struct {
	Count int `json:"count"`
}

// StatusData is returned by GetSessionStatus.
type StatusData struct {
	Status mirror.SessionStatus `json:"status"`
}

// AvailableData is returned by CheckAvailable.
type AvailableData struct {
	Available bool `json:"available"`
}

// VersionData is returned by GetVersion.
type VersionData struct {
	Version string `json:"version"`
}

// ==================== Session Handlers 会话处理器 ====================

// StartSession handles POST /api/v1/sessions - starts mirroring a device.
// StartSession 处理 POST /api/v1/sessions - 开始镜像一个设备。
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body StartSessionRequest true "启动会话请求"
// @Success 200 {object} Response
// @Router /api/v1/sessions [post]
func (h *Handler) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{ErrorMsg: err.Error()})
		return
	}

	opts := req.Options.Apply(h.defaults)
	sessionID, err := h.service.Start(c.Request.Context(), req.DeviceID, opts)
	if err != nil {
		c.JSON(getStatusCodeForError(err), Response{ErrorMsg: err.Error()})
		return
	}

	logger.InfoF(c.Request.Context(), "[Session] 启动会话成功 / session started: %s", sessionID)
	c.JSON(http.StatusOK, Response{Data: StartSessionData{SessionID: sessionID}})
}

// StopSession handles DELETE /api/v1/sessions/:id - stops one session.
// StopSession 处理 DELETE /api/v1/sessions/:id - 停止一个会话。
// @Tags sessions
// @Produce json
// @Param id path string true "会话ID"
// @Success 200 {object} Response
// @Router /api/v1/sessions/{id} [delete]
func (h *Handler) StopSession(c *gin.Context) {
	stopped, err := h.service.Stop(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(getStatusCodeForError(err), Response{ErrorMsg: err.Error(), Data: StopSessionData{Stopped: stopped}})
		return
	}
	c.JSON(http.StatusOK, Response{Data: StopSessionData{Stopped: stopped}})
}

// StopAllSessions handles DELETE /api/v1/sessions - stops every session.
// StopAllSessions 处理 DELETE /api/v1/sessions - 停止所有会话。
// @Tags sessions
// @Produce json
// @Success 200 {object} Response
// @Router /api/v1/sessions [delete]
func (h *Handler) StopAllSessions(c *gin.Context) {
	count, err := h.service.StopAll(c.Request.Context())
	if err != nil {
		c.JSON(getStatusCodeForError(err), Response{ErrorMsg: err.Error(), Data: StopAllData{Count: count}})
		return
	}
	c.JSON(http.StatusOK, Response{Data: StopAllData{Count: count}})
}

// GetSessionStatus handles GET /api/v1/sessions/:id/status.
// GetSessionStatus 处理 GET /api/v1/sessions/:id/status - 获取会话状态。
// @Tags sessions
// @Produce json
// @Param id path string true "会话ID"
// @Success 200 {object} Response
// @Router /api/v1/sessions/{id}/status [get]
func (h *Handler) GetSessionStatus(c *gin.Context) {
	status, err := h.service.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(getStatusCodeForError(err), Response{ErrorMsg: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Data: StatusData{Status: status}})
}

// ListSessions handles GET /api/v1/sessions - lists active sessions.
// ListSessions 处理 GET /api/v1/sessions - 获取活动会话列表。
// @Tags sessions
// @Produce json
// @Success 200 {object} Response
// @Router /api/v1/sessions [get]
func (h *Handler) ListSessions(c *gin.Context) {
	sessions, err := h.service.List(c.Request.Context())
	if err != nil {
		c.JSON(getStatusCodeForError(err), Response{ErrorMsg: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Data: sessions})
}

// GetStats handles GET /api/v1/sessions/stats.
// GetStats 处理 GET /api/v1/sessions/stats - 获取会话统计。
// @Tags sessions
// @Produce json
// @Success 200 {object} Response
// @Router /api/v1/sessions/stats [get]
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		c.JSON(getStatusCodeForError(err), Response{ErrorMsg: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Data: stats})
}

// ==================== scrcpy Probes scrcpy 探测 ====================

// CheckAvailable handles GET /api/v1/scrcpy/available.
// CheckAvailable 处理 GET /api/v1/scrcpy/available - 检查 scrcpy 是否可用。
// @Tags scrcpy
// @Produce json
// @Success 200 {object} Response
// @Router /api/v1/scrcpy/available [get]
func (h *Handler) CheckAvailable(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Data: AvailableData{Available: h.service.Available()}})
}

// GetVersion handles GET /api/v1/scrcpy/version.
// GetVersion 处理 GET /api/v1/scrcpy/version - 获取 scrcpy 版本。
// @Tags scrcpy
// @Produce json
// @Success 200 {object} Response
// @Router /api/v1/scrcpy/version [get]
func (h *Handler) GetVersion(c *gin.Context) {
	version, err := h.service.Version(c.Request.Context())
	if err != nil {
		c.JSON(getStatusCodeForError(err), Response{ErrorMsg: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Data: VersionData{Version: version}})
}

// getStatusCodeForError returns the appropriate HTTP status code for an error.
// getStatusCodeForError 根据错误返回适当的 HTTP 状态码。
func getStatusCodeForError(err error) int {
	switch {
	case errors.Is(err, mirror.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, mirror.ErrDeviceIDEmpty):
		return http.StatusBadRequest
	case errors.Is(err, mirror.ErrLaunchFailure):
		return http.StatusBadGateway
	case errors.Is(err, mirror.ErrLockFailure), errors.Is(err, mirror.ErrServiceClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, mirror.ErrTerminationFailure):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
