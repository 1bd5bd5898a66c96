// 包 ingest：把 GeoJSON FeatureCollection 导入属性存储的图层表
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"llur-overlap/internal/logger"
	"llur-overlap/internal/store"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// batchSize：单事务提交的行数上限
// 背景：图层可达数十万要素，整批单事务会把 WAL 撑满，按批提交
const batchSize = 5000

// Row：解码后的一条待入库要素
type Row struct {
	FID   int
	Props []byte
	Geom  string
}

// DecodeFeatures：解析 FeatureCollection 并编号
// 约束：仅接受 Polygon/MultiPolygon，其余类型要素整体报错而非跳过；
// fid 按文件内出现顺序从 1 起分配
func DecodeFeatures(r io.Reader) ([]Row, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, err
	}
	out := make([]Row, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f.Geometry == nil {
			return nil, fmt.Errorf("feature %d: null geometry", i)
		}
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			return nil, fmt.Errorf("feature %d: geometry type %s not supported", i, f.Geometry.GeoJSONType())
		}
		props, err := json.Marshal(map[string]any(f.Properties))
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		g := geojson.NewGeometry(f.Geometry)
		gj, err := g.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		out = append(out, Row{FID: i + 1, Props: props, Geom: string(gj)})
	}
	return out, nil
}

// LoadFile：导入单个 GeoJSON 文件为指定图层，返回入库行数
// 约束：先清空同名图层再写入，重复导入等价于整层替换
func LoadFile(ctx context.Context, st *store.Store, layer, path string) (int, error) {
	if layer == "" {
		return 0, errors.New("layer name required")
	}
	start := time.Now()
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	rows, err := DecodeFeatures(f)
	if err != nil {
		return 0, err
	}
	if err := st.DeleteLayerFeatures(ctx, layer); err != nil {
		return 0, err
	}

	db := st.DB()
	n := 0
	for n < len(rows) {
		end := n + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return n, err
		}
		stmt, err := tx.PrepareContext(ctx, "INSERT INTO _llur_features(layer, fid, props, geom) VALUES($1,$2,$3,$4)")
		if err != nil {
			tx.Rollback()
			return n, err
		}
		for _, r := range rows[n:end] {
			if _, err := stmt.ExecContext(ctx, layer, r.FID, r.Props, r.Geom); err != nil {
				stmt.Close()
				tx.Rollback()
				return n, err
			}
		}
		stmt.Close()
		if err := tx.Commit(); err != nil {
			return n, err
		}
		n = end
		logger.L().Debug("ingest_batch_committed", "layer", layer, "rows", n)
	}
	logger.L().Info("ingest_done", "layer", layer, "rows", n, "duration_ms", time.Since(start).Milliseconds())
	return n, nil
}
