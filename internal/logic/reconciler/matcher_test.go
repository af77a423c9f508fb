package reconciler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func delta(index int, address string, amount uint64) accountDelta {
	return accountDelta{index: index, address: address, amount: amount}
}

func TestIsTolerantMatch(t *testing.T) {
	// 完全匹配
	assert.True(t, isTolerantMatch(1_000_000_000, 1_000_000_000))

	// 手续费在 0.01 SOL 以内
	assert.True(t, isTolerantMatch(1_005_000, 1_000_000))

	// 大额转账按 1% 放宽：1% of 2e9 = 2e7 > 1e7
	assert.True(t, isTolerantMatch(2_000_000_000, 1_985_000_000))

	// 差值超出 max(1%, 0.01 SOL)，不匹配
	assert.False(t, isTolerantMatch(1_020_000_000, 1_000_000_000))

	// 接收金额大于发送金额，不匹配
	assert.False(t, isTolerantMatch(1_000_000, 1_005_000))
}

func TestMatchStrategy_String(t *testing.T) {
	assert.Equal(t, "exact", ExactMatch.String())
	assert.Equal(t, "one_to_many", OneToMany.String())
	assert.Equal(t, "many_to_one", ManyToOne.String())
	assert.Equal(t, "fallback", Fallback.String())
}

// 1:1 匹配按迭代顺序 first-fit，而非 best-fit。
func TestExactMatchPass_FirstFit(t *testing.T) {
	e := newTestEngine()
	st := newMatchState(testSig, testTs,
		[]accountDelta{delta(0, "S", 1_000_000_000)},
		[]accountDelta{
			delta(1, "R1", 999_000_000), // 先被扫到，差额在容差内
			delta(2, "R2", 1_000_000_000),
		})

	exactMatchPass{}.Run(e, st)

	require.Len(t, st.records, 1)
	assert.Equal(t, "R1", st.records[0].To, "first-fit 应命中迭代顺序上的第一个可匹配接收方")
	assert.True(t, st.senderUsed[0])
	assert.True(t, st.receiverUsed[0])
	assert.False(t, st.receiverUsed[1])
}

// 一对多：低于尘埃线或超出 150% 预算的接收方不参与。
func TestOneToManyPass_CandidateFilter(t *testing.T) {
	e := newTestEngine()
	st := newMatchState(testSig, testTs,
		[]accountDelta{delta(0, "S", 1_000_000_000)},
		[]accountDelta{
			delta(1, "dust", 50_000),           // 低于 100_000
			delta(2, "big", 2_000_000_000),     // 超过 150%
			delta(3, "ok", 800_000_000),
		})

	oneToManyPass{}.Run(e, st)

	require.Len(t, st.records, 1)
	assert.Equal(t, "ok", st.records[0].To)
	assert.Equal(t, uint64(800_000_000), st.records[0].Amount)
	assert.True(t, st.senderUsed[0], "消耗超过一半预算后发送方应标记为已使用")
}

// 多对一：发送方被消耗 ≥80% 才标记已使用，接收方覆盖过半才标记已使用。
func TestManyToOnePass_UsageThresholds(t *testing.T) {
	e := newTestEngine()
	st := newMatchState(testSig, testTs,
		[]accountDelta{delta(0, "S", 1_000_000_000)},
		[]accountDelta{delta(1, "R", 200_000_000)})

	manyToOnePass{}.Run(e, st)

	require.Len(t, st.records, 1)
	// used = min(1e9, 2e8*1.1) = 2.2e8，只占发送方 22%，不标记
	assert.False(t, st.senderUsed[0], "仅消耗 22% 的发送方不应标记为已使用")
	assert.True(t, st.receiverUsed[0], "接收方被完全覆盖后应标记为已使用")
	assert.Equal(t, uint64(200_000_000), st.records[0].Amount, "金额不得超过接收方所需")
}

// 兜底：金额取接收方全量，发送方不标记已使用，可服务多个接收方。
func TestFallbackPass_SenderReusable(t *testing.T) {
	e := newTestEngine()
	st := newMatchState(testSig, testTs,
		[]accountDelta{delta(0, "S", 500_000_000)},
		[]accountDelta{
			delta(1, "R1", 2_000_000),
			delta(2, "R2", 3_000_000),
			delta(3, "tiny", 500_000), // 低于兜底阈值 1_000_000
		})

	fallbackPass{}.Run(e, st)

	require.Len(t, st.records, 2, "兜底应覆盖两个显著接收方，忽略小额接收方")
	assert.Equal(t, uint64(2_000_000), st.records[0].Amount)
	assert.Equal(t, uint64(3_000_000), st.records[1].Amount)
	assert.Equal(t, "S", st.records[0].From)
	assert.Equal(t, "S", st.records[1].From)
	assert.False(t, st.senderUsed[0], "兜底匹配不独占发送方")
}
