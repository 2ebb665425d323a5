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
	"errors"
	"sync"
	"sync/atomic"
)

// fakeHandle is an in-memory Handle that counts termination signals.
type fakeHandle struct {
	pid          int
	exited       atomic.Bool
	terminations atomic.Int32

	mu           sync.Mutex
	pollErr      error
	terminateErr error
	panicOnPoll  bool
}

func (h *fakeHandle) PID() int { return h.pid }

func (h *fakeHandle) Exited() (bool, error) {
	h.mu.Lock()
	pollErr, panicOnPoll := h.pollErr, h.panicOnPoll
	h.mu.Unlock()

	if panicOnPoll {
		panic("poll exploded")
	}
	return h.exited.Load(), pollErr
}

func (h *fakeHandle) Terminate() error {
	h.terminations.Add(1)
	h.mu.Lock()
	err := h.terminateErr
	h.mu.Unlock()
	if err != nil {
		return err
	}
	h.exited.Store(true)
	return nil
}

// exit simulates the process ending on its own.
func (h *fakeHandle) exit() { h.exited.Store(true) }

func (h *fakeHandle) setTerminateErr(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.terminateErr = err
}

func (h *fakeHandle) setPollErr(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pollErr = err
}

// fakeLauncher hands out fakeHandles with increasing pids.
type fakeLauncher struct {
	nextPID atomic.Int32

	mu      sync.Mutex
	handles []*fakeHandle
	calls   []launchCall
	err     error
}

type launchCall struct {
	deviceID string
	opts     Options
}

func newFakeLauncher() *fakeLauncher {
	l := &fakeLauncher{}
	l.nextPID.Store(1000)
	return l
}

func (l *fakeLauncher) Launch(deviceID string, opts Options) (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls = append(l.calls, launchCall{deviceID: deviceID, opts: opts})
	if l.err != nil {
		return nil, l.err
	}
	h := &fakeHandle{pid: int(l.nextPID.Add(1))}
	l.handles = append(l.handles, h)
	return h, nil
}

func (l *fakeLauncher) all() []*fakeHandle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*fakeHandle(nil), l.handles...)
}

func (l *fakeLauncher) last() *fakeHandle {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.handles) == 0 {
		return nil
	}
	return l.handles[len(l.handles)-1]
}

var errKillRefused = errors.New("operation not permitted")

// poison makes every later registry call fail with ErrLockFailure.
func poison(r *Registry) {
	defer func() { _ = recover() }()
	_ = r.withLock(func() { panic("boom") })
}
