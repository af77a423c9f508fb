package reconciler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSig = "5VERYtestSIGNATURExxxxxxxxxxxxxxxxxxxxxxxxxx"
	testTs  = int64(1_700_000_000)
)

func newTestEngine() *Engine {
	return NewEngine(DebugConfig{})
}

// 最常见的单笔转账：发送方多付了 10_000 lamports 手续费，由 1:1 容差吸收。
func TestReconcileNative_SimpleTransferWithGas(t *testing.T) {
	e := newTestEngine()
	universe := []string{"A", "B"}

	records := e.ReconcileNative(universe,
		[]uint64{1_000_000_000, 0},
		[]uint64{0, 999_990_000},
		testSig, testTs)

	require.Len(t, records, 1, "应恰好还原出一笔转账")
	r := records[0]
	assert.Equal(t, "A", r.From)
	assert.Equal(t, "B", r.To)
	assert.Equal(t, uint64(999_990_000), r.Amount, "金额必须取接收方侧增量")
	assert.Equal(t, TransferNative, r.Kind)
	assert.Equal(t, testSig, r.Signature)
	assert.Equal(t, testTs, r.Timestamp)
}

func TestReconcileNative_NoChange(t *testing.T) {
	e := newTestEngine()

	records := e.ReconcileNative([]string{"A"},
		[]uint64{2_000_000_000},
		[]uint64{2_000_000_000},
		testSig, testTs)

	assert.Empty(t, records, "余额无变化不应产生转账")
}

// 只有发送方没有接收方：整笔交易只是 gas 消耗。
func TestReconcileNative_FeeOnly(t *testing.T) {
	e := newTestEngine()

	records := e.ReconcileNative([]string{"A"},
		[]uint64{1_000_000_000},
		[]uint64{999_995_000},
		testSig, testTs)

	assert.Empty(t, records, "仅有转出方时应视为手续费消耗")
}

func TestReconcileNative_LengthMismatch(t *testing.T) {
	e := newTestEngine()

	records := e.ReconcileNative([]string{"A", "B"},
		[]uint64{1, 2},
		[]uint64{1},
		testSig, testTs)

	assert.Empty(t, records, "前后余额长度不一致应降级为空结果")
}

func TestReconcileNative_UniverseShorterThanBalances(t *testing.T) {
	e := newTestEngine()

	records := e.ReconcileNative([]string{"A"},
		[]uint64{1_000_000_000, 0},
		[]uint64{0, 999_990_000},
		testSig, testTs)

	assert.Empty(t, records, "universe 短于余额数组应降级为空结果")
}

// 一对多：一个发送方的预算按金额从大到小贪心分给多个接收方。
func TestReconcileNative_OneToMany(t *testing.T) {
	e := newTestEngine()
	universe := []string{"S", "R1", "R2"}

	records := e.ReconcileNative(universe,
		[]uint64{1_500_000_000, 0, 0},
		[]uint64{0, 1_000_000_000, 490_000_000},
		testSig, testTs)

	require.Len(t, records, 2, "应还原出两笔转账")
	// 贪心按金额降序消费，大额接收方先被匹配
	assert.Equal(t, "S", records[0].From)
	assert.Equal(t, "R1", records[0].To)
	assert.Equal(t, uint64(1_000_000_000), records[0].Amount)
	assert.Equal(t, "S", records[1].From)
	assert.Equal(t, "R2", records[1].To)
	assert.Equal(t, uint64(490_000_000), records[1].Amount)
}

// 多对一：两个发送方凑一个接收方，第二笔金额被截到剩余所需。
func TestReconcileNative_ManyToOne(t *testing.T) {
	e := newTestEngine()
	universe := []string{"S1", "S2", "R"}

	records := e.ReconcileNative(universe,
		[]uint64{600_000_000, 400_000_000, 0},
		[]uint64{0, 0, 999_000_000},
		testSig, testTs)

	require.Len(t, records, 2)
	assert.Equal(t, "S1", records[0].From)
	assert.Equal(t, "R", records[0].To)
	assert.Equal(t, uint64(600_000_000), records[0].Amount)
	assert.Equal(t, "S2", records[1].From)
	assert.Equal(t, uint64(399_000_000), records[1].Amount, "最后一笔只计入接收方还缺的部分")

	var total uint64
	for _, r := range records {
		total += r.Amount
	}
	assert.Equal(t, uint64(999_000_000), total, "合计应等于接收方增量")
}

// 同样输入调用两次，输出必须逐条一致（引擎无状态、排序稳定）。
func TestReconcileNative_Idempotent(t *testing.T) {
	e := newTestEngine()
	universe := []string{"S", "R1", "R2", "R3"}
	pre := []uint64{3_000_000_000, 0, 0, 0}
	post := []uint64{0, 1_000_000_000, 1_000_000_000, 990_000_000}

	first := e.ReconcileNative(universe, pre, post, testSig, testTs)
	second := e.ReconcileNative(universe, pre, post, testSig, testTs)

	assert.Equal(t, first, second, "纯函数应产出完全一致的结果")
}

// 任何产出记录的金额都不为 0。
func TestReconcileNative_NoZeroAmount(t *testing.T) {
	e := newTestEngine()
	universe := []string{"A", "B", "C", "D"}

	records := e.ReconcileNative(universe,
		[]uint64{5_000_000_000, 200_000, 0, 0},
		[]uint64{0, 250_000, 4_700_000_000, 150_000},
		testSig, testTs)

	for _, r := range records {
		assert.NotZero(t, r.Amount, "不允许产出金额为 0 的转账记录")
	}
}
