package store

import (
	"context"

	"llur-overlap/internal/logger"

	"github.com/lib/pq"
)

// OverlapRow：问题叠加输出的一行（落库形态，几何为 GeoJSON 文本）
type OverlapRow struct {
	PairKey          string
	ParentFID        int
	ChildFID         int
	ParentBiz        string
	ChildBiz         string
	IntersectionArea float64
	ParentArea       float64
	ChildArea        float64
	AreaPercent      float64
	Geom             string
}

// LayerRow：干净图层输出的一行
type LayerRow struct {
	FID   int
	BizID string
	Area  float64
	Props []byte
	Geom  string
}

// FusionOut：融合输出的一行
type FusionOut struct {
	SiteFID          int
	ActivityFID      int
	SiteBiz          string
	ActivityBiz      string
	CompositeID      string
	IntersectionArea float64
	AreaPercent      float64
	FullyContained   bool
	Geom             string
}

// CreateOverlapTable：重建问题叠加输出表
// 约束：运行输出整表替换，历史结果不保留；保留需换输出目录前缀
func (s *Store) CreateOverlapTable(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+pq.QuoteIdentifier(name)); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `CREATE TABLE `+pq.QuoteIdentifier(name)+` (
        pair_key TEXT NOT NULL,
        parent_fid INT NOT NULL,
        child_fid INT NOT NULL,
        parent_biz TEXT NOT NULL,
        child_biz TEXT NOT NULL,
        intersection_area DOUBLE PRECISION NOT NULL,
        parent_area DOUBLE PRECISION NOT NULL,
        child_area DOUBLE PRECISION NOT NULL,
        area_pct DOUBLE PRECISION NOT NULL,
        geom TEXT NOT NULL
    )`)
	return err
}

// WriteOverlapRows：批量写入问题叠加记录
func (s *Store) WriteOverlapRows(ctx context.Context, name string, rows []OverlapRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+pq.QuoteIdentifier(name)+
		`(pair_key,parent_fid,child_fid,parent_biz,child_biz,intersection_area,parent_area,child_area,area_pct,geom)
        VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.PairKey, r.ParentFID, r.ChildFID, r.ParentBiz, r.ChildBiz,
			r.IntersectionArea, r.ParentArea, r.ChildArea, r.AreaPercent, r.Geom); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	logger.L().Debug("overlap_rows_written", "table", name, "rows", len(rows))
	return nil
}

// CreateLayerTable：重建干净图层输出表
func (s *Store) CreateLayerTable(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+pq.QuoteIdentifier(name)); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `CREATE TABLE `+pq.QuoteIdentifier(name)+` (
        fid INT PRIMARY KEY,
        biz_id TEXT NOT NULL,
        area DOUBLE PRECISION NOT NULL,
        props JSONB NOT NULL DEFAULT '{}'::jsonb,
        geom TEXT NOT NULL
    )`)
	return err
}

// WriteLayerRows：批量写入干净图层要素
func (s *Store) WriteLayerRows(ctx context.Context, name string, rows []LayerRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+pq.QuoteIdentifier(name)+
		`(fid,biz_id,area,props,geom) VALUES($1,$2,$3,$4,$5)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		props := r.Props
		if len(props) == 0 {
			props = []byte("{}")
		}
		if _, err := stmt.ExecContext(ctx, r.FID, r.BizID, r.Area, props, r.Geom); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	logger.L().Debug("layer_rows_written", "table", name, "rows", len(rows))
	return nil
}

// ForEachLayerRow：按 fid 升序流式遍历干净图层输出表
// 背景：预清洗后的融合以干净图层为输入，读取形态与源图层游标一致
func (s *Store) ForEachLayerRow(ctx context.Context, name string, fn func(fid int, bizID string, area float64, props []byte, geomJSON string) error) error {
	rows, err := s.db.QueryContext(ctx, "SELECT fid, biz_id, area, props, geom FROM "+pq.QuoteIdentifier(name)+" ORDER BY fid")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var fid int
		var bizID string
		var area float64
		var props []byte
		var geomJSON string
		if err := rows.Scan(&fid, &bizID, &area, &props, &geomJSON); err != nil {
			return err
		}
		if err := fn(fid, bizID, area, props, geomJSON); err != nil {
			return err
		}
	}
	return rows.Err()
}

// CreateFusionTable：重建融合输出表
func (s *Store) CreateFusionTable(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+pq.QuoteIdentifier(name)); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `CREATE TABLE `+pq.QuoteIdentifier(name)+` (
        site_fid INT NOT NULL,
        activity_fid INT NOT NULL,
        site_biz TEXT NOT NULL,
        activity_biz TEXT NOT NULL,
        composite_id TEXT NOT NULL,
        intersection_area DOUBLE PRECISION NOT NULL,
        area_pct DOUBLE PRECISION NOT NULL,
        fully_contained BOOLEAN NOT NULL,
        geom TEXT NOT NULL,
        PRIMARY KEY(site_fid, activity_fid)
    )`)
	return err
}

// WriteFusionRows：批量写入融合记录
func (s *Store) WriteFusionRows(ctx context.Context, name string, rows []FusionOut) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+pq.QuoteIdentifier(name)+
		`(site_fid,activity_fid,site_biz,activity_biz,composite_id,intersection_area,area_pct,fully_contained,geom)
        VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.SiteFID, r.ActivityFID, r.SiteBiz, r.ActivityBiz,
			r.CompositeID, r.IntersectionArea, r.AreaPercent, r.FullyContained, r.Geom); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	logger.L().Debug("fusion_rows_written", "table", name, "rows", len(rows))
	return nil
}

// DeleteFusionRow：按要素对删除融合记录（阈值第二遍过滤）
func (s *Store) DeleteFusionRow(ctx context.Context, name string, siteFID, activityFID int) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM "+pq.QuoteIdentifier(name)+" WHERE site_fid=$1 AND activity_fid=$2", siteFID, activityFID)
	return err
}

// UpdateFusionField：更新融合记录的单个动态字段值
func (s *Store) UpdateFusionField(ctx context.Context, name, field string, siteFID, activityFID int, value string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE "+pq.QuoteIdentifier(name)+" SET "+pq.QuoteIdentifier(field)+"=$1 WHERE site_fid=$2 AND activity_fid=$3", value, siteFID, activityFID)
	return err
}

// CountRows：输出表行数，作为对外返回的唯一标量结果
func (s *Store) CountRows(ctx context.Context, name string) (int64, error) {
	var c int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM "+pq.QuoteIdentifier(name)).Scan(&c)
	return c, err
}
