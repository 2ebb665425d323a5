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

// Package router 提供 HTTP 路由配置
// Package router provides HTTP routing configuration
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/scrcpyx/scrcpyx/internal/apps/audit"
	"github.com/scrcpyx/scrcpyx/internal/apps/session"
	"github.com/scrcpyx/scrcpyx/internal/config"
	"github.com/scrcpyx/scrcpyx/internal/logger"
	"github.com/scrcpyx/scrcpyx/internal/mirror"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RequestIDHeader carries the id of every request
// RequestIDHeader 携带每个请求的 ID
const RequestIDHeader = "X-Request-ID"

// Deps are the services served by the router.
// Deps 是路由对外提供的服务。
type Deps struct {
	App      config.AppConfig
	Service  *mirror.Service
	Defaults mirror.Options

	// History may be nil when the database is disabled
	// 数据库禁用时 History 可以为 nil
	History *audit.Repository
}

// New builds the gin engine.
// New 构建 gin 引擎。
func New(deps Deps) *gin.Engine {
	// 运行模式
	// Set run mode
	if deps.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	// 补充中间件
	// Add middleware
	r.Use(otelgin.Middleware(deps.App.Name), loggerMiddleware())

	sessionHandler := session.NewHandler(deps.Service, deps.Defaults)
	historyHandler := audit.NewHandler(deps.History)

	apiGroup := r.Group(deps.App.APIPrefix)
	{
		// API V1
		apiV1Router := apiGroup.Group("/v1")
		{
			// Health
			apiV1Router.GET("/health", health)

			// Sessions
			sessionRouter := apiV1Router.Group("/sessions")
			{
				// POST /api/v1/sessions - 启动会话 / Start a session
				sessionRouter.POST("", sessionHandler.StartSession)
				// GET /api/v1/sessions - 获取活动会话 / List active sessions
				sessionRouter.GET("", sessionHandler.ListSessions)
				// DELETE /api/v1/sessions - 停止所有会话 / Stop all sessions
				sessionRouter.DELETE("", sessionHandler.StopAllSessions)
				// GET /api/v1/sessions/stats - 会话统计 / Session stats
				sessionRouter.GET("/stats", sessionHandler.GetStats)
				// GET /api/v1/sessions/history - 会话历史 / Session history
				sessionRouter.GET("/history", historyHandler.ListSessionEvents)
				// GET /api/v1/sessions/:id/status - 会话状态 / Session status
				sessionRouter.GET("/:id/status", sessionHandler.GetSessionStatus)
				// DELETE /api/v1/sessions/:id - 停止会话 / Stop a session
				sessionRouter.DELETE("/:id", sessionHandler.StopSession)
			}

			// scrcpy
			scrcpyRouter := apiV1Router.Group("/scrcpy")
			{
				scrcpyRouter.GET("/available", sessionHandler.CheckAvailable)
				scrcpyRouter.GET("/version", sessionHandler.GetVersion)
			}
		}
	}

	return r
}

// health handles GET /api/v1/health
func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"error_msg": "", "data": gin.H{"status": "ok"}})
}

// loggerMiddleware tags every request with an id and logs its outcome.
// loggerMiddleware 为每个请求分配 ID 并记录处理结果。
func loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		msg := "[API] %s %s %d %v request_id=%s"
		args := []any{c.Request.Method, c.Request.URL.Path, status, time.Since(start), requestID}
		switch {
		case status >= http.StatusInternalServerError:
			logger.ErrorF(c.Request.Context(), msg, args...)
		case status >= http.StatusBadRequest:
			logger.WarnF(c.Request.Context(), msg, args...)
		default:
			logger.InfoF(c.Request.Context(), msg, args...)
		}
	}
}
