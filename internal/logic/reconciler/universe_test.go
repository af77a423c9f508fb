package reconciler

import (
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
)

func testKey(seed byte) []byte {
	b := make([]byte, 32)
	for i := range b {
		b[i] = seed
	}
	return b
}

func TestBuildAccountUniverse_Order(t *testing.T) {
	static1 := testKey(1)
	static2 := testKey(2)
	writable := testKey(3)
	readonly := testKey(4)

	universe := BuildAccountUniverse(
		[][]byte{static1, static2},
		[][]byte{writable},
		[][]byte{readonly},
	)

	assert.Len(t, universe, 4, "应包含全部 4 个账户")
	// 顺序必须是 static -> writable -> readonly
	assert.Equal(t, base58.Encode(static1), universe[0])
	assert.Equal(t, base58.Encode(static2), universe[1])
	assert.Equal(t, base58.Encode(writable), universe[2])
	assert.Equal(t, base58.Encode(readonly), universe[3])
}

func TestBuildAccountUniverse_Empty(t *testing.T) {
	universe := BuildAccountUniverse(nil, nil, nil)
	assert.Empty(t, universe, "空交易应得到空 universe")
}

func TestResolveAccount(t *testing.T) {
	universe := []string{"A", "B"}

	assert.Equal(t, "A", ResolveAccount(universe, 0))
	assert.Equal(t, "B", ResolveAccount(universe, 1))
	// 越界索引退化为占位符
	assert.Equal(t, "unknown_2", ResolveAccount(universe, 2))
	assert.Equal(t, "unknown_-1", ResolveAccount(universe, -1))
}
