// 包 geom：封装 GEOS 几何后端，提供面积、包含、叠加与擦除等委托运算
// 背景：核心解析逻辑只依赖本包暴露的操作，不直接触碰几何算法实现
package geom

import (
	"errors"

	"github.com/twpayne/go-geos"
)

// Feature：内存中的面要素
// FID 为图层内稳定整数标识；BizID 为业务编号（来自指定属性字段）
type Feature struct {
	FID   int
	BizID string
	Area  float64
	Geom  *geos.Geom
	Props map[string]any
}

// OverlapRecord：同图层自叠加产生的一条有向记录
// 父/子来自同一要素集的两次实例化，面积字段在生成时一次性取值
type OverlapRecord struct {
	ParentFID        int
	ChildFID         int
	ParentBiz        string
	ChildBiz         string
	IntersectionArea float64
	ParentArea       float64
	ChildArea        float64
	Geom             *geos.Geom
}

// FusionRow：跨图层叠加（Activities × Sites）产生的一条原始记录
type FusionRow struct {
	SiteFID          int
	ActivityFID      int
	SiteBiz          string
	ActivityBiz      string
	IntersectionArea float64
	Geom             *geos.Geom
}

// Parse：解析 GeoJSON 几何文本为 GEOS 句柄
// 约束：仅接受面类几何；空几何视为非法输入
func Parse(geojson string) (*geos.Geom, error) {
	g, err := geos.NewGeomFromGeoJSON(geojson)
	if err != nil {
		return nil, err
	}
	if g.IsEmpty() {
		g.Destroy()
		return nil, errors.New("empty geometry")
	}
	return g, nil
}

// Area：面积委托
func Area(g *geos.Geom) float64 { return g.Area() }

// Contains：包含判定委托（a 完整包含 b）
func Contains(a, b *geos.Geom) bool { return a.Contains(b) }

// ToGeoJSON：序列化几何句柄，供属性存储落库
func ToGeoJSON(g *geos.Geom) string { return g.ToGeoJSON(-1) }

// IntersectSelf：图层与自身叠加
// 背景：对全部有序要素对求交，含自反对（i==j）与同一无序对的双向重复，
// 与通用叠加工具的输出形态一致；去自反与双向合并由上层显式处理
func IntersectSelf(features []Feature) []OverlapRecord {
	var out []OverlapRecord
	for i := range features {
		for j := range features {
			p := features[i]
			c := features[j]
			if i == j {
				out = append(out, OverlapRecord{
					ParentFID:        p.FID,
					ChildFID:         c.FID,
					ParentBiz:        p.BizID,
					ChildBiz:         c.BizID,
					IntersectionArea: p.Area,
					ParentArea:       p.Area,
					ChildArea:        c.Area,
					Geom:             p.Geom.Clone(),
				})
				continue
			}
			if !p.Geom.Intersects(c.Geom) {
				continue
			}
			g := p.Geom.Intersection(c.Geom)
			if g == nil {
				continue
			}
			a := g.Area()
			if a <= 0 {
				g.Destroy()
				continue
			}
			out = append(out, OverlapRecord{
				ParentFID:        p.FID,
				ChildFID:         c.FID,
				ParentBiz:        p.BizID,
				ChildBiz:         c.BizID,
				IntersectionArea: a,
				ParentArea:       p.Area,
				ChildArea:        c.Area,
				Geom:             g,
			})
		}
	}
	return out
}

// Intersect：跨图层叠加，逐对求交并保留正面积结果
func Intersect(activities, sites []Feature) []FusionRow {
	var out []FusionRow
	for i := range sites {
		s := sites[i]
		for j := range activities {
			a := activities[j]
			if !s.Geom.Intersects(a.Geom) {
				continue
			}
			g := s.Geom.Intersection(a.Geom)
			if g == nil {
				continue
			}
			ia := g.Area()
			if ia <= 0 {
				g.Destroy()
				continue
			}
			out = append(out, FusionRow{
				SiteFID:          s.FID,
				ActivityFID:      a.FID,
				SiteBiz:          s.BizID,
				ActivityBiz:      a.BizID,
				IntersectionArea: ia,
				Geom:             g,
			})
		}
	}
	return out
}

// Erase：从图层中扣除擦除几何，返回新的要素集
// 约束：逐要素做差集，面积同步重算；被完全擦除的要素不再出现在结果中；
// 输入要素的句柄不被销毁，结果持有独立句柄
func Erase(features []Feature, erase []*geos.Geom) []Feature {
	var out []Feature
	for i := range features {
		f := features[i]
		g := f.Geom.Clone()
		for _, e := range erase {
			if e == nil || !g.Intersects(e) {
				continue
			}
			d := g.Difference(e)
			if d == nil {
				continue
			}
			g.Destroy()
			g = d
		}
		if g.IsEmpty() {
			g.Destroy()
			continue
		}
		out = append(out, Feature{
			FID:   f.FID,
			BizID: f.BizID,
			Area:  g.Area(),
			Geom:  g,
			Props: f.Props,
		})
	}
	return out
}

// DestroyFeatures：释放一组要素的几何句柄
func DestroyFeatures(fs []Feature) {
	for i := range fs {
		if fs[i].Geom != nil {
			fs[i].Geom.Destroy()
			fs[i].Geom = nil
		}
	}
}

// DestroyRecords：释放叠加记录持有的几何句柄
func DestroyRecords(rs []OverlapRecord) {
	for i := range rs {
		if rs[i].Geom != nil {
			rs[i].Geom.Destroy()
			rs[i].Geom = nil
		}
	}
}

// DestroyRows：释放融合记录持有的几何句柄
func DestroyRows(rs []FusionRow) {
	for i := range rs {
		if rs[i].Geom != nil {
			rs[i].Geom.Destroy()
			rs[i].Geom = nil
		}
	}
}
