// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"llur-overlap/internal/fusion"
	"llur-overlap/internal/metrics"
	"llur-overlap/internal/overlap"
	"llur-overlap/internal/store"

	"github.com/redis/go-redis/v9"
)

// 解析结果结构：仅包含对外返回必要字段
type resolveResult struct {
	Layer       string `json:"layer"`
	OverlapRows int64  `json:"overlap_rows"`
	CleanRows   int64  `json:"clean_rows"`
}

type fuseResult struct {
	Activities string `json:"activities"`
	Sites      string `json:"sites"`
	Rows       int64  `json:"rows"`
}

// parseThreshold：阈值参数，缺省 5（百分比）
func parseThreshold(r *http.Request) float64 {
	if s := r.URL.Query().Get("threshold"); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return 5
}

// writeError：输入与一致性错误返回 4xx/5xx，错误文本原样透出
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	var ive *overlap.InputValidationError
	if errors.As(err, &ive) {
		code = http.StatusBadRequest
	}
	var ce *overlap.ConsistencyError
	if errors.As(err, &ce) {
		code = http.StatusConflict
	}
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	_ = json.NewEncoder(w).Encode(v)
}

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到前缀
func BuildRoutes(st *store.Store, cat store.Catalog, rc *redis.Client) *http.ServeMux {
	apiMux := http.NewServeMux()

	apiMux.HandleFunc("/resolve", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		q := r.URL.Query()
		layer := q.Get("layer")
		idField := q.Get("id_field")
		if layer == "" || idField == "" {
			http.Error(w, "layer and id_field required", http.StatusBadRequest)
			return
		}
		ov, cl, err := overlap.ResolveSelfOverlaps(r.Context(), st, cat, layer, idField, parseThreshold(r))
		if err != nil {
			writeError(w, err)
			return
		}
		if rc != nil {
			rc.Del(r.Context(), "summary:"+layer)
		}
		writeJSON(w, resolveResult{Layer: layer, OverlapRows: ov, CleanRows: cl})
	})

	apiMux.HandleFunc("/fuse", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		q := r.URL.Query()
		opts := fusion.Options{
			Activities:      q.Get("activities"),
			Sites:           q.Get("sites"),
			ActivityIDField: q.Get("activity_id_field"),
			SiteIDField:     q.Get("site_id_field"),
			Threshold:       parseThreshold(r),
		}
		if opts.Activities == "" || opts.Sites == "" || opts.ActivityIDField == "" || opts.SiteIDField == "" {
			http.Error(w, "activities, sites, activity_id_field and site_id_field required", http.StatusBadRequest)
			return
		}
		if cf := q.Get("carry_fields"); cf != "" {
			opts.CarryFields = splitCSV(cf)
		}
		var (
			n   int64
			err error
		)
		if q.Get("preclean") == "1" || q.Get("preclean") == "true" {
			n, err = fusion.FuseLayersWithPreclean(r.Context(), st, cat, opts)
		} else {
			n, err = fusion.FuseLayers(r.Context(), st, cat, opts)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, fuseResult{Activities: opts.Activities, Sites: opts.Sites, Rows: n})
	})

	apiMux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		t, _ := st.GetTotals(r.Context())
		writeJSON(w, map[string]any{"total_runs": t.TotalRuns, "total_rows": t.TotalRows, "today_runs": t.TodayRuns})
	})

	apiMux.HandleFunc("/summary", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		layer := r.URL.Query().Get("layer")
		if layer == "" {
			http.Error(w, "layer required", http.StatusBadRequest)
			return
		}
		if rc != nil {
			s, _ := rc.Get(ctx, "summary:"+layer).Result()
			if s != "" {
				metrics.RedisHitsTotal.Inc()
				w.Header().Set("content-type", "application/json; charset=utf-8")
				w.Header().Set("cache-control", "no-store")
				_, _ = w.Write([]byte(s))
				return
			}
			metrics.RedisMissesTotal.Inc()
		}
		sum, _ := st.LastRun(ctx, layer)
		if sum == nil {
			http.Error(w, "no runs for layer", http.StatusNotFound)
			return
		}
		b, _ := json.Marshal(sum)
		if rc != nil {
			rc.Set(ctx, "summary:"+layer, string(b), time.Hour*24)
		}
		w.Header().Set("content-type", "application/json; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write(b)
	})

	return apiMux
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
