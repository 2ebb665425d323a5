/*
 * MIT License
 *
 * Copyright (c) 2025 linux.do
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package migrator

import (
	"context"
	"fmt"

	"github.com/scrcpyx/scrcpyx/internal/apps/audit"
	"github.com/scrcpyx/scrcpyx/internal/logger"
	"gorm.io/gorm"
)

// Models lists every table owned by the daemon.
// Models 列出守护进程拥有的所有数据表。
func Models() []any {
	return []any{
		&audit.SessionEvent{}, // 会话事件表 / Session event table
	}
}

// Migrate 执行数据库表迁移，gdb 为 nil（数据库未启用）时跳过
func Migrate(ctx context.Context, gdb *gorm.DB) error {
	if gdb == nil {
		logger.InfoF(ctx, "[Database] 数据库未启用，跳过迁移")
		return nil
	}

	if err := gdb.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("[Database] auto migrate failed: %w", err)
	}
	logger.InfoF(ctx, "[Database] auto migrate success")
	return nil
}
