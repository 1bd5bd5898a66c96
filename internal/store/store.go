// 包 store: 提供与 PostgreSQL 的属性数据访问层，包含要素流式读取、运行输出落库与统计读写
package store

import (
	"context"
	"database/sql"
	"time"

	"llur-overlap/internal/logger"

	_ "github.com/lib/pq"
)

// Store: 数据库访问入口，持有连接池并提供要素/输出/统计接口
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

// Close: 关闭数据库连接
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// ForEachFeature：按 fid 升序流式遍历图层要素
// 背景：图层可能很大，使用游标逐行回调而非整体载入切片；回调返回错误即中止
func (s *Store) ForEachFeature(ctx context.Context, layer string, fn func(fid int, props []byte, geomJSON string) error) error {
	rows, err := s.db.QueryContext(ctx, "SELECT fid, props, geom FROM _llur_features WHERE layer=$1 ORDER BY fid", layer)
	if err != nil {
		return err
	}
	defer rows.Close()
	n := 0
	for rows.Next() {
		var fid int
		var props []byte
		var geomJSON string
		if err := rows.Scan(&fid, &props, &geomJSON); err != nil {
			return err
		}
		if err := fn(fid, props, geomJSON); err != nil {
			return err
		}
		n++
	}
	logger.L().Debug("feature_scan_done", "layer", layer, "rows", n)
	return rows.Err()
}

// CountFeatures：图层要素数量
func (s *Store) CountFeatures(ctx context.Context, layer string) (int64, error) {
	var c int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM _llur_features WHERE layer=$1", layer).Scan(&c)
	return c, err
}

// DeleteLayerFeatures：清空图层要素，导入工具重复执行时先清后写
func (s *Store) DeleteLayerFeatures(ctx context.Context, layer string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM _llur_features WHERE layer=$1", layer)
	return err
}

// RecordRun：记录一次解析/融合运行并更新累计与当日统计
func (s *Store) RecordRun(ctx context.Context, kind, layer string, threshold float64, rowCount int64, dur time.Duration) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO _llur_runs(kind, layer, threshold, row_count, duration_ms)
        VALUES($1,$2,$3,$4,$5)`, kind, layer, threshold, rowCount, dur.Milliseconds())
	if err != nil {
		return err
	}
	_, _ = s.db.ExecContext(ctx, "UPDATE _llur_stats_total SET total_runs=total_runs+1, total_rows=total_rows+$1 WHERE id=1", rowCount)
	_, _ = s.db.ExecContext(ctx, `INSERT INTO _llur_stats_daily(day, runs, rows) VALUES(current_date, 1, $1)
        ON CONFLICT (day) DO UPDATE SET runs=_llur_stats_daily.runs+1, rows=_llur_stats_daily.rows+EXCLUDED.rows`, rowCount)
	logger.L().Debug("run_recorded", "kind", kind, "layer", layer, "rows", rowCount)
	return nil
}

// Totals: 统计返回结构，包含累计与当日运行次数
type Totals struct {
	TotalRuns int64
	TotalRows int64
	TodayRuns int64
}

// GetTotals: 读取累计与当日运行统计，用于接口返回
func (s *Store) GetTotals(ctx context.Context) (*Totals, error) {
	var t Totals
	row := s.db.QueryRowContext(ctx, "SELECT total_runs, total_rows FROM _llur_stats_total WHERE id=1")
	_ = row.Scan(&t.TotalRuns, &t.TotalRows)
	row2 := s.db.QueryRowContext(ctx, "SELECT runs FROM _llur_stats_daily WHERE day=current_date")
	_ = row2.Scan(&t.TodayRuns)
	return &t, nil
}

// RunSummary：单次运行的摘要，供查询接口与缓存使用
type RunSummary struct {
	Kind      string    `json:"kind"`
	Layer     string    `json:"layer"`
	Threshold float64   `json:"threshold"`
	RowCount  int64     `json:"row_count"`
	StartedAt time.Time `json:"started_at"`
}

// LastRun：返回指定图层最近一次运行摘要；无记录时返回 nil
func (s *Store) LastRun(ctx context.Context, layer string) (*RunSummary, error) {
	row := s.db.QueryRowContext(ctx, `SELECT kind, layer, threshold, row_count, started_at
        FROM _llur_runs WHERE layer=$1 ORDER BY started_at DESC LIMIT 1`, layer)
	var r RunSummary
	if err := row.Scan(&r.Kind, &r.Layer, &r.Threshold, &r.RowCount, &r.StartedAt); err != nil {
		return nil, nil
	}
	return &r, nil
}
