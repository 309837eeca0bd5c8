package migrate

import (
	"context"
	"database/sql"

	"qtree-api/internal/logger"
)

// 背景：首次运行自动创建查询统计表
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；仅创建最小必需结构
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS _qt_query_stats (
            year TEXT NOT NULL,
            month TEXT NOT NULL,
            res TEXT NOT NULL,
            queries BIGINT NOT NULL DEFAULT 0,
            points BIGINT NOT NULL DEFAULT 0,
            last_query TIMESTAMPTZ NOT NULL DEFAULT now(),
            PRIMARY KEY (year, month, res)
        )`,
		`CREATE TABLE IF NOT EXISTS _qt_stats_daily (
            day DATE PRIMARY KEY,
            queries BIGINT NOT NULL DEFAULT 0,
            misses BIGINT NOT NULL DEFAULT 0
        )`,
		`CREATE INDEX IF NOT EXISTS idx_qt_query_stats_queries ON _qt_query_stats(queries DESC)`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
