// 包 overlap：同图层叠加解析核心——去自反、按无序对归并、分类并过滤绘制误差
package overlap

import "fmt"

// pairKeyWidth：标识零填充宽度；是格式下限而非截断上限，超宽标识原样保留
const pairKeyWidth = 6

// PairKey：无序要素对的规范键
// 背景：图层自叠加对每个真实重叠对产出方向相反的两条记录，
// 需要一个与方向无关的键做归并；零填充后按字典序拼接可保证交换律
// 约束：全函数、确定性、无隐藏状态；仅接受非负标识
func PairKey(a, b int) string {
	x := fmt.Sprintf("%0*d", pairKeyWidth, a)
	y := fmt.Sprintf("%0*d", pairKeyWidth, b)
	if y < x {
		x, y = y, x
	}
	return x + y
}
