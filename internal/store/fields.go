package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// 字段迁移能力：输出表的字段增删改属于存储层职责，解析核心只声明需要的字段名

// fieldNameWidth：目标模式的字段名宽度上限
// 背景：下游交换格式（shapefile 属性表）限制字段名长度，落库时即按该宽度规整
const fieldNameWidth = 10

// AddField：为输出表新增字段
func (s *Store) AddField(ctx context.Context, table, name, sqlType string) error {
	_, err := s.db.ExecContext(ctx, "ALTER TABLE "+pq.QuoteIdentifier(table)+" ADD COLUMN IF NOT EXISTS "+pq.QuoteIdentifier(name)+" "+sqlType)
	return err
}

// RenameField：重命名输出表字段
func (s *Store) RenameField(ctx context.Context, table, oldName, newName string) error {
	_, err := s.db.ExecContext(ctx, "ALTER TABLE "+pq.QuoteIdentifier(table)+" RENAME COLUMN "+pq.QuoteIdentifier(oldName)+" TO "+pq.QuoteIdentifier(newName))
	return err
}

// DeleteField：删除输出表字段
func (s *Store) DeleteField(ctx context.Context, table, name string) error {
	_, err := s.db.ExecContext(ctx, "ALTER TABLE "+pq.QuoteIdentifier(table)+" DROP COLUMN IF EXISTS "+pq.QuoteIdentifier(name))
	return err
}

// ListFields：读取输出表现有字段名
func (s *Store) ListFields(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT column_name FROM information_schema.columns
        WHERE table_name=$1 ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// ResolveNameCollision：把候选字段名规整到目标宽度并避开已有字段
// 背景：属性字段来自外部数据的任意键名，需截断到固定宽度；截断可能制造撞名，
// 用递增数字后缀找到首个可用名
// 约束：比较不区分大小写；数字后缀占用宽度，基名相应缩短
func ResolveNameCollision(existing []string, candidate string) string {
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[strings.ToLower(e)] = true
	}
	base := sanitizeField(candidate)
	if len(base) > fieldNameWidth {
		base = base[:fieldNameWidth]
	}
	if !seen[base] {
		return base
	}
	for i := 1; ; i++ {
		suffix := fmt.Sprintf("_%d", i)
		stem := base
		if len(stem)+len(suffix) > fieldNameWidth {
			stem = stem[:fieldNameWidth-len(suffix)]
		}
		name := stem + suffix
		if !seen[name] {
			return name
		}
	}
}

// sanitizeField：字段名仅保留小写字母数字与下划线，首字符不允许数字
func sanitizeField(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" {
		return "field"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "f" + out
	}
	return out
}

// EnsurePropColumn：在输出表上为属性键准备一个可用字段并返回最终字段名
func (s *Store) EnsurePropColumn(ctx context.Context, table, candidate string) (string, error) {
	existing, err := s.ListFields(ctx, table)
	if err != nil {
		return "", err
	}
	final := ResolveNameCollision(existing, candidate)
	if err := s.AddField(ctx, table, final, "TEXT"); err != nil {
		return "", err
	}
	return final, nil
}
