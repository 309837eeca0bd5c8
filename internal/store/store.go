// 包 store: PostgreSQL 数据访问层，记录按分区的查询统计
package store

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"

	"qtree-api/internal/logger"
)

// Store: 数据库访问入口，持有连接池并提供统计读写
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// Open: 使用 DSN 打开数据库连接并配置连接池参数
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// RecordQuery: 命中时累加分区查询次数与返回点数；当日计数总是累加，未命中另计 misses
func (s *Store) RecordQuery(ctx context.Context, year, month, res string, points int, hit bool) error {
	if hit {
		if _, err := s.db.ExecContext(ctx, `INSERT INTO _qt_query_stats(year, month, res, queries, points, last_query)
            VALUES($1, $2, $3, 1, $4, now())
            ON CONFLICT (year, month, res) DO UPDATE SET queries=_qt_query_stats.queries+1,
                points=_qt_query_stats.points+EXCLUDED.points, last_query=now()`,
			year, month, res, points); err != nil {
			return err
		}
	}
	miss := 0
	if !hit {
		miss = 1
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO _qt_stats_daily(day, queries, misses) VALUES(current_date, 1, $1)
        ON CONFLICT (day) DO UPDATE SET queries=_qt_stats_daily.queries+1, misses=_qt_stats_daily.misses+EXCLUDED.misses`, miss)
	logger.L().Debug("stats_incr", "year", year, "month", month, "res", res, "hit", hit)
	return err
}

// Totals: 累计与当日查询次数
type Totals struct {
	Total       int64 `json:"total"`
	Today       int64 `json:"today"`
	TodayMisses int64 `json:"today_misses"`
}

// GetTotals: 读取累计与当日查询次数；无记录时为 0
func (s *Store) GetTotals(ctx context.Context) (*Totals, error) {
	var t Totals
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(SUM(queries), 0) FROM _qt_stats_daily").Scan(&t.Total); err != nil {
		return nil, err
	}
	err := s.db.QueryRowContext(ctx, "SELECT queries, misses FROM _qt_stats_daily WHERE day=current_date").Scan(&t.Today, &t.TodayMisses)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	logger.L().Debug("stats_totals", "total", t.Total, "today", t.Today)
	return &t, nil
}

// PartitionCount: 单个分区的累计查询
type PartitionCount struct {
	Year    string `json:"year"`
	Month   string `json:"month"`
	Res     string `json:"res"`
	Queries int64  `json:"queries"`
	Points  int64  `json:"points"`
}

// TopPartitions: 按查询次数倒序返回前 limit 个分区
func (s *Store) TopPartitions(ctx context.Context, limit int) ([]PartitionCount, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT year, month, res, queries, points FROM _qt_query_stats
        ORDER BY queries DESC, year, month, res LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PartitionCount
	for rows.Next() {
		var p PartitionCount
		if err := rows.Scan(&p.Year, &p.Month, &p.Res, &p.Queries, &p.Points); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
