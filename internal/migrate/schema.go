package migrate

import (
	"database/sql"
	"llur-overlap/internal/logger"
)

// 背景：首次运行自动创建所需表与索引，保障后续导入与解析
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；仅创建最小必需结构，运行输出表由 store 按目录动态建表
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS _llur_features (
            layer TEXT NOT NULL,
            fid INT NOT NULL,
            props JSONB NOT NULL DEFAULT '{}'::jsonb,
            geom TEXT NOT NULL,
            PRIMARY KEY(layer, fid)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_features_layer ON _llur_features(layer)`,
		`CREATE TABLE IF NOT EXISTS _llur_runs (
            id SERIAL PRIMARY KEY,
            kind TEXT NOT NULL,
            layer TEXT NOT NULL,
            threshold DOUBLE PRECISION NOT NULL,
            row_count BIGINT NOT NULL,
            started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            duration_ms BIGINT NOT NULL DEFAULT 0
        )`,
		`CREATE INDEX IF NOT EXISTS idx_runs_layer ON _llur_runs(layer, started_at DESC)`,
		`CREATE TABLE IF NOT EXISTS _llur_stats_total (
            id INT PRIMARY KEY,
            total_runs BIGINT NOT NULL DEFAULT 0,
            total_rows BIGINT NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS _llur_stats_daily (
            day DATE PRIMARY KEY,
            runs BIGINT NOT NULL DEFAULT 0,
            rows BIGINT NOT NULL DEFAULT 0
        )`,
		`INSERT INTO _llur_stats_total(id, total_runs, total_rows)
         VALUES(1, 0, 0)
         ON CONFLICT (id) DO NOTHING`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
