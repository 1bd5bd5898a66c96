package overlap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairKeyCommutative(t *testing.T) {
	assert.Equal(t, PairKey(12, 7), PairKey(7, 12))
	assert.Equal(t, PairKey(0, 999999), PairKey(999999, 0))
}

func TestPairKeyZeroPadding(t *testing.T) {
	assert.Equal(t, "000007000012", PairKey(12, 7))
	assert.Equal(t, "000003000003", PairKey(3, 3))
}

// 填充的意义：没有定宽，(1,23) 与 (12,3) 的裸拼接会撞键
func TestPairKeyDistinctPairs(t *testing.T) {
	assert.NotEqual(t, PairKey(1, 23), PairKey(12, 3))
	assert.NotEqual(t, PairKey(11, 1), PairKey(1, 11000))
}

// 宽度是下限：超过六位的标识不截断，交换律仍成立
func TestPairKeyWideIdentifiers(t *testing.T) {
	assert.Equal(t, PairKey(1234567, 42), PairKey(42, 1234567))
	assert.Equal(t, "0000421234567", PairKey(1234567, 42))
}
