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

// Package db opens the gorm connection used for the session history.
// db 包负责打开会话历史使用的 gorm 连接。
package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/scrcpyx/scrcpyx/internal/config"
	"github.com/scrcpyx/scrcpyx/internal/logger"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// DatabaseType 数据库类型常量
const (
	DatabaseTypeSQLite   = "sqlite"
	DatabaseTypeMySQL    = "mysql"
	DatabaseTypePostgres = "postgres"
)

// DefaultSQLitePath is used when sqlite_path is empty
// DefaultSQLitePath 在 sqlite_path 为空时使用
const DefaultSQLitePath = "./data/scrcpyx.db"

// Open 根据配置打开数据库连接
// 支持 SQLite、MySQL、PostgreSQL 三种数据库类型，默认使用 SQLite。
// 数据库未启用时返回 nil, nil。
func Open(ctx context.Context, dbConfig config.DatabaseConfig) (*gorm.DB, error) {
	if !dbConfig.Enabled {
		logger.InfoF(ctx, "[Database] 数据库已禁用，跳过初始化 / database disabled")
		return nil, nil
	}

	dbType := dbConfig.Type
	if dbType == "" {
		dbType = DatabaseTypeSQLite
	}

	dialector, err := newDialector(ctx, dbType, dbConfig)
	if err != nil {
		return nil, fmt.Errorf("[Database] 初始化 %s 驱动失败: %w", dbType, err)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   getGormLogger(dbConfig.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("[Database] 连接 %s 数据库失败: %w", dbType, err)
	}

	// 注入 OpenTelemetry 追踪
	if err := gdb.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		logger.WarnF(ctx, "[Database] 初始化追踪插件失败: %v", err)
	}

	if err := configureConnectionPool(gdb, dbType, dbConfig); err != nil {
		_ = Close(gdb)
		return nil, fmt.Errorf("[Database] 配置连接池失败: %w", err)
	}

	logger.InfoF(ctx, "[Database] 成功连接到 %s 数据库 / connected", dbType)
	return gdb, nil
}

func newDialector(ctx context.Context, dbType string, dbConfig config.DatabaseConfig) (gorm.Dialector, error) {
	switch dbType {
	case DatabaseTypeSQLite:
		return sqliteDialector(ctx, dbConfig.SQLitePath)
	case DatabaseTypeMySQL:
		logger.InfoF(ctx, "[Database] 连接 MySQL 数据库: %s:%d/%s", dbConfig.Host, dbConfig.Port, dbConfig.Database)
		return mysql.Open(MySQLDSN(dbConfig)), nil
	case DatabaseTypePostgres:
		logger.InfoF(ctx, "[Database] 连接 PostgreSQL 数据库: %s:%d/%s", dbConfig.Host, dbConfig.Port, dbConfig.Database)
		return postgres.Open(PostgresDSN(dbConfig)), nil
	default:
		return nil, fmt.Errorf("不支持的数据库类型: %s，支持的类型: sqlite, mysql, postgres", dbType)
	}
}

// sqliteDialector 初始化 SQLite 驱动
func sqliteDialector(ctx context.Context, sqlitePath string) (gorm.Dialector, error) {
	if sqlitePath == "" {
		sqlitePath = DefaultSQLitePath
	}

	// 确保目录存在
	if err := os.MkdirAll(filepath.Dir(sqlitePath), 0755); err != nil {
		return nil, fmt.Errorf("创建 SQLite 目录失败: %w", err)
	}

	logger.InfoF(ctx, "[Database] 使用 SQLite 数据库: %s", sqlitePath)
	return sqlite.Open(sqlitePath), nil
}

// MySQLDSN builds the go-sql-driver DSN
// MySQLDSN 构建 MySQL 连接串
func MySQLDSN(dbConfig config.DatabaseConfig) string {
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		dbConfig.Username,
		dbConfig.Password,
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.Database,
	)
}

// PostgresDSN builds the pgx keyword/value DSN
// PostgresDSN 构建 PostgreSQL 连接串
func PostgresDSN(dbConfig config.DatabaseConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.Username,
		dbConfig.Password,
		dbConfig.Database,
	)
}

// configureConnectionPool 配置数据库连接池
// SQLite 只允许一个写连接
func configureConnectionPool(gdb *gorm.DB, dbType string, dbConfig config.DatabaseConfig) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("获取底层数据库连接失败: %w", err)
	}

	if dbType == DatabaseTypeSQLite {
		sqlDB.SetMaxOpenConns(1)
		return nil
	}

	if dbConfig.MaxIdleConn > 0 {
		sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConn)
	}
	if dbConfig.MaxOpenConn > 0 {
		sqlDB.SetMaxOpenConns(dbConfig.MaxOpenConn)
	}
	if dbConfig.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(dbConfig.ConnMaxLifetime) * time.Second)
	}
	return nil
}

// getGormLogger 根据配置获取 GORM 日志记录器
func getGormLogger(level string) gormlogger.Interface {
	var logLevel gormlogger.LogLevel
	switch level {
	case "silent":
		logLevel = gormlogger.Silent
	case "error":
		logLevel = gormlogger.Error
	case "warn":
		logLevel = gormlogger.Warn
	case "info":
		logLevel = gormlogger.Info
	default:
		logLevel = gormlogger.Warn
	}
	return gormlogger.Default.LogMode(logLevel)
}

// Close 关闭数据库连接，gdb 为 nil 时不做任何事
func Close(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("获取底层数据库连接失败: %w", err)
	}
	return sqlDB.Close()
}
