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

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/scrcpyx/scrcpyx/internal/logger"
	"github.com/scrcpyx/scrcpyx/internal/otel_trace"
	"go.opentelemetry.io/otel/attribute"
)

// SessionStatus is the caller-visible state of a session.
// SessionStatus 是调用方可见的会话状态。
type SessionStatus string

const (
	// StatusRunning means the session is tracked and its process has not exited
	// StatusRunning 表示会话被跟踪且进程尚未退出
	StatusRunning SessionStatus = "Running"

	// StatusStopped covers exited, stopped and never-tracked sessions alike
	// StatusStopped 同时涵盖已退出、已停止和从未跟踪的会话
	StatusStopped SessionStatus = "Stopped"
)

// Session describes one active mirroring session.
// Session 描述一个活动的镜像会话。
type Session struct {
	SessionID string        `json:"session_id"`
	DeviceID  string        `json:"device_id"`
	Status    SessionStatus `json:"status"`
	StartedAt time.Time     `json:"started_at"`
}

// Stats summarizes the registry.
// Stats 汇总注册表状态。
type Stats struct {
	ActiveSessions int `json:"active_sessions"`

	// TotalStarted equals ActiveSessions; no lifetime counter is kept.
	// TotalStarted 等于 ActiveSessions，不维护累计计数。
	TotalStarted int `json:"total_started"`
}

// EventType is a session lifecycle event.
// EventType 表示会话生命周期事件。
type EventType string

const (
	EventStarted    EventType = "started"
	EventStopped    EventType = "stopped"
	EventStopFailed EventType = "stop_failed"
	EventExited     EventType = "exited"
	EventShutdown   EventType = "shutdown"
)

// SessionEvent is passed to the EventHandler.
// SessionEvent 会传递给 EventHandler。
type SessionEvent struct {
	Type      EventType
	SessionID string
	DeviceID  string
	PID       int
	Message   string
	At        time.Time
}

// EventHandler receives lifecycle events. It is never called with the
// registry lock held.
// EventHandler 接收生命周期事件，调用时从不持有注册表锁。
type EventHandler func(ctx context.Context, event SessionEvent)

// exitReporter is implemented by handles that can describe how they ended.
type exitReporter interface {
	ExitSummary() string
	Output() string
}

// Service is the session facade used by every caller. It composes a
// Launcher with the Registry that owns the launched processes.
// Service 是所有调用方使用的会话门面，组合了 Launcher 和拥有已启动进程的 Registry。
type Service struct {
	launcher Launcher
	registry *Registry
	now      func() time.Time

	handlerMu sync.RWMutex
	handler   EventHandler

	monitorMu     sync.Mutex
	monitorCancel context.CancelFunc
	monitorDone   chan struct{}

	shutdownOnce sync.Once
	closed       atomic.Bool
}

// NewService creates a Service. registry may be nil, in which case a new
// empty registry is used.
// NewService 创建 Service。registry 为 nil 时使用新的空注册表。
func NewService(launcher Launcher, registry *Registry) *Service {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Service{
		launcher: launcher,
		registry: registry,
		now:      time.Now,
	}
}

// SetEventHandler sets the lifecycle callback.
// SetEventHandler 设置生命周期回调。
func (s *Service) SetEventHandler(handler EventHandler) {
	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()
	s.handler = handler
}

func (s *Service) emit(ctx context.Context, event SessionEvent) {
	s.handlerMu.RLock()
	handler := s.handler
	s.handlerMu.RUnlock()

	if handler == nil {
		return
	}
	if event.At.IsZero() {
		event.At = s.now()
	}
	handler(ctx, event)
}

// SessionID derives the id of a session from its device and process id.
// SessionID 根据设备 ID 和进程 ID 生成会话 ID。
func SessionID(deviceID string, pid int) string {
	return fmt.Sprintf("session_%s_%d", deviceID, pid)
}

// Start launches scrcpy for deviceID and tracks it. Two sessions for the same
// device are allowed.
// Start 为 deviceID 启动 scrcpy 并跟踪它，同一设备允许存在多个会话。
func (s *Service) Start(ctx context.Context, deviceID string, opts Options) (string, error) {
	ctx, span := otel_trace.Start(ctx, "mirror.Start")
	defer span.End()
	span.SetAttributes(attribute.String("device_id", deviceID))

	if strings.TrimSpace(deviceID) == "" {
		return "", ErrDeviceIDEmpty
	}
	if s.closed.Load() {
		return "", ErrServiceClosed
	}

	if err := s.prune(ctx); err != nil {
		return "", err
	}

	handle, err := s.launcher.Launch(deviceID, opts)
	if err != nil {
		if !errors.Is(err, ErrLaunchFailure) {
			err = fmt.Errorf("%w: %v", ErrLaunchFailure, err)
		}
		span.RecordError(err)
		logger.ErrorF(ctx, "[Mirror] Failed to launch scrcpy for device %s: %v", deviceID, err)
		return "", err
	}

	sessionID := SessionID(deviceID, handle.PID())
	rec := &Record{Handle: handle, DeviceID: deviceID, StartedAt: s.now()}

	if err := s.registry.Insert(sessionID, rec); err != nil {
		// Untracked processes would outlive the daemon
		// 未被跟踪的进程会在守护进程退出后残留
		if termErr := handle.Terminate(); termErr != nil {
			logger.ErrorF(ctx, "[Mirror] Failed to terminate untracked process %d: %v", handle.PID(), termErr)
		}
		span.RecordError(err)
		if errors.Is(err, ErrServiceClosed) {
			logger.WarnF(ctx, "[Mirror] Session %s discarded, service is shutting down", sessionID)
		} else {
			logger.ErrorF(ctx, "[Mirror] Failed to register session %s: %v", sessionID, err)
		}
		return "", err
	}

	span.SetAttributes(attribute.String("session_id", sessionID))
	logger.InfoF(ctx, "[Mirror] Session %s started (device: %s, pid: %d)", sessionID, deviceID, handle.PID())
	s.emit(ctx, SessionEvent{
		Type:      EventStarted,
		SessionID: sessionID,
		DeviceID:  deviceID,
		PID:       handle.PID(),
		At:        rec.StartedAt,
	})
	return sessionID, nil
}

// Stop terminates one session. It returns ErrSessionNotFound for an id that
// is not tracked, including one already stopped or pruned.
// Stop 终止一个会话。对于未被跟踪的 ID（包括已停止或已清理的）返回 ErrSessionNotFound。
func (s *Service) Stop(ctx context.Context, sessionID string) (bool, error) {
	ctx, span := otel_trace.Start(ctx, "mirror.Stop")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", sessionID))

	rec, err := s.registry.Remove(sessionID)
	if err != nil {
		logger.ErrorF(ctx, "[Mirror] Registry unavailable while stopping %s: %v", sessionID, err)
		return false, err
	}
	if rec == nil {
		return false, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	if err := rec.Handle.Terminate(); err != nil {
		if !errors.Is(err, ErrTerminationFailure) {
			err = fmt.Errorf("%w: %v", ErrTerminationFailure, err)
		}
		span.RecordError(err)
		logger.ErrorF(ctx, "[Mirror] Failed to stop session %s: %v", sessionID, err)
		s.emit(ctx, SessionEvent{
			Type:      EventStopFailed,
			SessionID: sessionID,
			DeviceID:  rec.DeviceID,
			PID:       rec.Handle.PID(),
			Message:   err.Error(),
		})
		return false, err
	}

	logger.InfoF(ctx, "[Mirror] Session %s stopped", sessionID)
	s.emit(ctx, SessionEvent{
		Type:      EventStopped,
		SessionID: sessionID,
		DeviceID:  rec.DeviceID,
		PID:       rec.Handle.PID(),
	})
	return true, nil
}

// StopAll terminates every session and returns how many were tracked before
// the drain. Per-session failures are joined into the error.
// StopAll 终止所有会话，返回清空前被跟踪的会话数。单个会话的失败会合并到错误中。
func (s *Service) StopAll(ctx context.Context) (int, error) {
	ctx, span := otel_trace.Start(ctx, "mirror.StopAll")
	defer span.End()

	count, err := s.registry.Count()
	if err != nil {
		logger.ErrorF(ctx, "[Mirror] Registry unavailable while stopping all sessions: %v", err)
		return 0, err
	}

	terminated, err := s.registry.TerminateAllFunc(s.observeTermination(ctx, EventStopped))
	if err != nil {
		if errors.Is(err, ErrLockFailure) {
			logger.ErrorF(ctx, "[Mirror] Registry unavailable while stopping all sessions: %v", err)
			return 0, err
		}
		span.RecordError(err)
		logger.ErrorF(ctx, "[Mirror] Some sessions could not be stopped: %v", err)
		if !errors.Is(err, ErrTerminationFailure) {
			err = fmt.Errorf("%w: %v", ErrTerminationFailure, err)
		}
		return count, err
	}

	logger.InfoF(ctx, "[Mirror] Stopped all sessions (tracked: %d, terminated: %d)", count, terminated)
	return count, nil
}

func (s *Service) observeTermination(ctx context.Context, onSuccess EventType) func(string, *Record, error) {
	return func(sessionID string, rec *Record, err error) {
		event := SessionEvent{
			Type:      onSuccess,
			SessionID: sessionID,
			DeviceID:  rec.DeviceID,
			PID:       rec.Handle.PID(),
		}
		if err != nil {
			event.Type = EventStopFailed
			event.Message = err.Error()
		}
		s.emit(ctx, event)
	}
}

// Status reports Running when sessionID is tracked and its process is alive.
// Status 在 sessionID 被跟踪且进程存活时返回 Running。
func (s *Service) Status(ctx context.Context, sessionID string) (SessionStatus, error) {
	ctx, span := otel_trace.Start(ctx, "mirror.Status")
	defer span.End()

	if err := s.prune(ctx); err != nil {
		return StatusStopped, err
	}

	ok, err := s.registry.Contains(sessionID)
	if err != nil {
		return StatusStopped, err
	}
	if ok {
		return StatusRunning, nil
	}
	return StatusStopped, nil
}

// List returns the active sessions ordered by start time.
// List 返回按启动时间排序的活动会话。
func (s *Service) List(ctx context.Context) ([]*Session, error) {
	ctx, span := otel_trace.Start(ctx, "mirror.List")
	defer span.End()

	if err := s.prune(ctx); err != nil {
		return nil, err
	}

	ids, err := s.registry.IDs()
	if err != nil {
		return nil, err
	}

	sessions := make([]*Session, 0, len(ids))
	for _, id := range ids {
		meta, ok, err := s.registry.Lookup(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Removed concurrently / 已被并发移除
			continue
		}
		sessions = append(sessions, &Session{
			SessionID: id,
			DeviceID:  meta.DeviceID,
			Status:    StatusRunning,
			StartedAt: meta.StartedAt,
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].StartedAt.Equal(sessions[j].StartedAt) {
			return sessions[i].StartedAt.Before(sessions[j].StartedAt)
		}
		return sessions[i].SessionID < sessions[j].SessionID
	})
	return sessions, nil
}

// Stats reports the number of active sessions.
// Stats 返回活动会话数。
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	ctx, span := otel_trace.Start(ctx, "mirror.Stats")
	defer span.End()

	if err := s.prune(ctx); err != nil {
		return nil, err
	}

	count, err := s.registry.Count()
	if err != nil {
		return nil, err
	}
	return &Stats{ActiveSessions: count, TotalStarted: count}, nil
}

// Prune removes sessions whose process has exited and returns how many were removed.
// Prune 移除进程已退出的会话，返回移除数量。
func (s *Service) Prune(ctx context.Context) (int, error) {
	pruned, err := s.pruneRecords(ctx)
	return len(pruned), err
}

func (s *Service) prune(ctx context.Context) error {
	_, err := s.pruneRecords(ctx)
	return err
}

func (s *Service) pruneRecords(ctx context.Context) ([]PrunedRecord, error) {
	pruned, err := s.registry.PruneFinished()
	if err != nil {
		logger.ErrorF(ctx, "[Mirror] Registry unavailable while pruning: %v", err)
		return nil, err
	}

	for _, p := range pruned {
		event := SessionEvent{
			Type:      EventExited,
			SessionID: p.SessionID,
			DeviceID:  p.Record.DeviceID,
			PID:       p.Record.Handle.PID(),
		}

		if p.PollErr != nil {
			// Ownership passed to us; make sure the process is gone
			// 所有权已转移给当前调用方，确保进程已结束
			if termErr := p.Record.Handle.Terminate(); termErr != nil {
				logger.WarnF(ctx, "[Mirror] Failed to terminate unpollable session %s: %v", p.SessionID, termErr)
			}
			event.Message = fmt.Sprintf("exit status unavailable: %v", p.PollErr)
			logger.WarnF(ctx, "[Mirror] Session %s removed, %s", p.SessionID, event.Message)
		} else if r, ok := p.Record.Handle.(exitReporter); ok {
			event.Message = r.ExitSummary()
			logger.InfoF(ctx, "[Mirror] Session %s exited: %s", p.SessionID, event.Message)
			if out := strings.TrimSpace(r.Output()); out != "" {
				logger.DebugF(ctx, "[Mirror] Session %s output:\n%s", p.SessionID, out)
			}
		} else {
			logger.InfoF(ctx, "[Mirror] Session %s exited", p.SessionID)
		}

		s.emit(ctx, event)
	}
	return pruned, nil
}

// StartMonitor prunes exited sessions every interval until ctx is done or
// Shutdown is called. A non-positive interval disables it.
// StartMonitor 每隔 interval 清理已退出的会话，直到 ctx 结束或调用 Shutdown。
// interval 非正数时不启动。
func (s *Service) StartMonitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	s.monitorMu.Lock()
	defer s.monitorMu.Unlock()
	if s.monitorCancel != nil {
		return
	}

	monitorCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.monitorCancel = cancel
	s.monitorDone = done

	go s.monitorLoop(monitorCtx, interval, done)
	logger.InfoF(ctx, "[Mirror] Monitor started (interval: %v)", interval)
}

func (s *Service) monitorLoop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Prune(ctx)
			if errors.Is(err, ErrLockFailure) {
				return
			}
			if n > 0 {
				logger.DebugF(ctx, "[Mirror] Monitor pruned %d session(s)", n)
			}
		}
	}
}

// StopMonitor stops the background monitor and waits for it to return.
// StopMonitor 停止后台监控并等待其退出。
func (s *Service) StopMonitor() {
	s.monitorMu.Lock()
	cancel, done := s.monitorCancel, s.monitorDone
	s.monitorCancel, s.monitorDone = nil, nil
	s.monitorMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Shutdown stops the monitor and terminates every tracked process. Only the
// first call does any work; later and concurrent calls return 0. Start fails
// with ErrServiceClosed afterwards, and a Start that raced with it has its
// process terminated instead of tracked.
// Shutdown 停止监控并终止所有被跟踪的进程。只有第一次调用生效，之后及并发调用返回 0。
// 之后 Start 返回 ErrServiceClosed，与之并发的 Start 启动的进程会被终止而不是被跟踪。
func (s *Service) Shutdown(ctx context.Context) int {
	terminated := 0
	s.shutdownOnce.Do(func() {
		s.closed.Store(true)
		s.StopMonitor()

		n, err := s.registry.Close(s.observeTermination(ctx, EventShutdown))
		terminated = n
		if err != nil {
			logger.ErrorF(ctx, "[Mirror] Shutdown finished with errors (terminated: %d): %v", n, err)
			return
		}
		logger.InfoF(ctx, "[Mirror] Shutdown terminated %d session(s)", n)
	})
	return terminated
}

// Available reports whether the launcher can run scrcpy.
// Available 返回启动器能否运行 scrcpy。
func (s *Service) Available() bool {
	p, ok := s.launcher.(prober)
	return ok && p.Available()
}

// Version returns the scrcpy version string.
// Version 返回 scrcpy 版本字符串。
func (s *Service) Version(ctx context.Context) (string, error) {
	p, ok := s.launcher.(prober)
	if !ok {
		return "", fmt.Errorf("%w: launcher cannot probe scrcpy", ErrLaunchFailure)
	}
	return p.Version(ctx)
}

type prober interface {
	Available() bool
	Version(ctx context.Context) (string, error)
}
