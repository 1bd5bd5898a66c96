package overlap

import "fmt"

// ConsistencyError：几何后端与属性存储对要素标识的认知不一致
// 背景：查找表与记录集来自同一输入，键缺失说明源数据或委托计算出错，
// 属于致命错误，本地不可恢复；携带定位信息便于排查源数据
type ConsistencyError struct {
	Layer   string
	PairKey string
	FID     int
	Msg     string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("consistency error: %s (layer=%s pair_key=%s fid=%d)", e.Msg, e.Layer, e.PairKey, e.FID)
}

// InputValidationError：输入图层不满足前置条件，处理开始前报告
type InputValidationError struct {
	Layer string
	Field string
	FID   int
	Msg   string
}

func (e *InputValidationError) Error() string {
	return fmt.Sprintf("input validation error: %s (layer=%s field=%s fid=%d)", e.Msg, e.Layer, e.Field, e.FID)
}
