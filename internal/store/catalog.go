package store

import (
	"os"
	"strings"
)

// Catalog：输出目录抽象
// 背景：输出表的位置与命名通过显式配置传入每次解析调用，
// 取代隐式的全局工作空间状态；同一前缀下的输出可整体识别与清理
type Catalog struct {
	Prefix string
}

// CatalogFromEnv：从 LLUR_OUTPUT_PREFIX 构建输出目录，缺省 _llur
func CatalogFromEnv() Catalog {
	p := os.Getenv("LLUR_OUTPUT_PREFIX")
	if p == "" {
		p = "_llur"
	}
	return Catalog{Prefix: p}
}

// tableIdent：规整表名片段，仅保留小写字母数字与下划线
func tableIdent(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// OverlapTable：图层问题叠加输出表名
func (c Catalog) OverlapTable(layer string) string {
	return tableIdent(c.Prefix) + "_overlap_" + tableIdent(layer)
}

// NoOverlapTable：擦除问题叠加后的干净图层表名
func (c Catalog) NoOverlapTable(layer string) string {
	return tableIdent(c.Prefix) + "_nooverlap_" + tableIdent(layer)
}

// FusionTable：跨图层融合输出表名
func (c Catalog) FusionTable(activities, sites string) string {
	return tableIdent(c.Prefix) + "_fused_" + tableIdent(activities) + "_" + tableIdent(sites)
}
