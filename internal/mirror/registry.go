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
	"fmt"
	"sync"
	"time"
)

// Record is the registry's entry for one launched scrcpy process.
// Once inserted, the registry owns Handle: nothing else may signal it until
// Remove, PruneFinished or TerminateAll hands it back.
// Record 是注册表中一个 scrcpy 进程的条目。插入后 Handle 归注册表所有，
// 在 Remove、PruneFinished 或 TerminateAll 交还之前，其他代码不得向其发送信号。
type Record struct {
	Handle    Handle
	DeviceID  string
	StartedAt time.Time
}

// Metadata is the read-only projection of a Record.
// Metadata 是 Record 的只读投影。
type Metadata struct {
	DeviceID  string
	StartedAt time.Time
}

// PrunedRecord is a record removed by PruneFinished.
// PrunedRecord 是被 PruneFinished 移除的记录。
type PrunedRecord struct {
	SessionID string
	Record    *Record

	// PollErr is set when the exit status could not be read.
	// PollErr 在无法读取退出状态时设置。
	PollErr error
}

// Registry maps session ids to live scrcpy processes.
// Registry 维护会话 ID 到存活 scrcpy 进程的映射。
//
// Every operation holds mu only for the structural change. Termination
// signals are always sent on records that were already taken out of the map,
// never while mu is held.
// 每个操作只在结构性修改期间持有 mu。终止信号总是发送给已从映射中取出的记录，
// 绝不在持有 mu 时发送。
type Registry struct {
	mu sync.Mutex

	// poisoned is set when a panic escaped a critical section
	// poisoned 在临界区内发生 panic 时被设置
	poisoned bool

	// closed is set by Close; Insert fails afterwards
	// closed 由 Close 设置，之后 Insert 会失败
	closed bool

	records map[string]*Record
}

// NewRegistry creates an empty registry.
// NewRegistry 创建一个空注册表。
func NewRegistry() *Registry {
	return &Registry{
		records: make(map[string]*Record),
	}
}

// withLock runs fn under mu. A panic inside fn poisons the registry and is
// re-raised; every later call fails with ErrLockFailure.
// withLock 在持有 mu 时执行 fn。fn 内的 panic 会使注册表失效并继续抛出；
// 之后的所有调用都返回 ErrLockFailure。
func (r *Registry) withLock(fn func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.poisoned {
		return ErrLockFailure
	}

	defer func() {
		if p := recover(); p != nil {
			r.poisoned = true
			panic(p)
		}
	}()

	fn()
	return nil
}

// Insert stores rec under sessionID, overwriting any stale entry. It fails
// with ErrServiceClosed once the registry has been closed.
// Insert 以 sessionID 存储 rec，覆盖任何旧条目。注册表关闭后返回 ErrServiceClosed。
func (r *Registry) Insert(sessionID string, rec *Record) error {
	if rec == nil {
		return errors.New("mirror: record is nil")
	}
	closed := false
	if err := r.withLock(func() {
		if r.closed {
			closed = true
			return
		}
		r.records[sessionID] = rec
	}); err != nil {
		return err
	}
	if closed {
		return ErrServiceClosed
	}
	return nil
}

// Remove atomically takes the record out of the registry. The caller becomes
// responsible for sending its single termination signal. A nil record means
// the session was not tracked.
// Remove 原子地从注册表取出记录，调用方负责发送唯一一次终止信号。
// 返回 nil 表示该会话未被跟踪。
func (r *Registry) Remove(sessionID string) (*Record, error) {
	var rec *Record
	err := r.withLock(func() {
		if found, ok := r.records[sessionID]; ok {
			rec = found
			delete(r.records, sessionID)
		}
	})
	return rec, err
}

// Contains reports whether sessionID is tracked. It does not poll the OS.
// Contains 返回 sessionID 是否被跟踪，不查询操作系统。
func (r *Registry) Contains(sessionID string) (bool, error) {
	var ok bool
	err := r.withLock(func() {
		_, ok = r.records[sessionID]
	})
	return ok, err
}

// IDs returns a snapshot of the tracked session ids. It may be stale as soon
// as it returns.
// IDs 返回当前跟踪的会话 ID 快照，返回后可能立即过期。
func (r *Registry) IDs() ([]string, error) {
	var ids []string
	err := r.withLock(func() {
		ids = make([]string, 0, len(r.records))
		for id := range r.records {
			ids = append(ids, id)
		}
	})
	return ids, err
}

// Lookup returns the metadata of sessionID, with the same staleness caveat as IDs.
// Lookup 返回 sessionID 的元数据，与 IDs 一样可能过期。
func (r *Registry) Lookup(sessionID string) (Metadata, bool, error) {
	var (
		meta Metadata
		ok   bool
	)
	err := r.withLock(func() {
		var rec *Record
		if rec, ok = r.records[sessionID]; ok {
			meta = Metadata{DeviceID: rec.DeviceID, StartedAt: rec.StartedAt}
		}
	})
	return meta, ok, err
}

// PruneFinished removes every record whose process has exited. A polling
// error counts as exited. It never waits for a running process.
// PruneFinished 移除所有进程已退出的记录，查询出错也视为已退出，从不等待运行中的进程。
func (r *Registry) PruneFinished() ([]PrunedRecord, error) {
	var pruned []PrunedRecord
	err := r.withLock(func() {
		for id, rec := range r.records {
			exited, pollErr := rec.Handle.Exited()
			if !exited && pollErr == nil {
				continue
			}
			delete(r.records, id)
			pruned = append(pruned, PrunedRecord{SessionID: id, Record: rec, PollErr: pollErr})
		}
	})
	return pruned, err
}

// TerminateAll drains the registry, then signals each drained process once.
// A failure for one record does not stop the others; failures are joined into
// the returned error. The count is the number of successful signals.
// TerminateAll 清空注册表，然后向每个取出的进程发送一次信号。单条失败不会中断其余记录，
// 所有失败合并后返回。返回的数量是成功发送信号的次数。
func (r *Registry) TerminateAll() (int, error) {
	return r.TerminateAllFunc(nil)
}

// TerminateAllFunc is TerminateAll with a per-record observer, called after
// each signal with its result.
// TerminateAllFunc 与 TerminateAll 相同，但每发送一次信号后都会以结果调用 observe。
func (r *Registry) TerminateAllFunc(observe func(sessionID string, rec *Record, err error)) (int, error) {
	return r.drainAndTerminate(false, observe)
}

// Close marks the registry closed and terminates everything it held. Closing
// and draining happen under one lock, so no Insert can land after the drain.
// Close 将注册表标记为关闭并终止其持有的所有进程。关闭与清空在同一次加锁内完成，
// 清空之后不会再有 Insert 成功。
func (r *Registry) Close(observe func(sessionID string, rec *Record, err error)) (int, error) {
	return r.drainAndTerminate(true, observe)
}

func (r *Registry) drainAndTerminate(seal bool, observe func(string, *Record, error)) (int, error) {
	var drained map[string]*Record
	if err := r.withLock(func() {
		if seal {
			r.closed = true
		}
		drained = r.records
		r.records = make(map[string]*Record)
	}); err != nil {
		return 0, err
	}

	// Signal outside the lock / 在锁外发送信号
	terminated := 0
	var errs []error
	for id, rec := range drained {
		err := rec.Handle.Terminate()
		if observe != nil {
			observe(id, rec, err)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", id, err))
			continue
		}
		terminated++
	}
	return terminated, errors.Join(errs...)
}

// Count returns the number of tracked records.
// Count 返回被跟踪的记录数量。
func (r *Registry) Count() (int, error) {
	var n int
	err := r.withLock(func() {
		n = len(r.records)
	})
	return n, err
}
