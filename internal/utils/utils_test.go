package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionHashBytes(t *testing.T) {
	sig := make([]byte, 64)
	for i := range sig {
		sig[i] = byte(i)
	}

	p := PartitionHashBytes(sig, 8)
	assert.Less(t, p, uint32(8))
	// 同一输入结果稳定
	assert.Equal(t, p, PartitionHashBytes(sig, 8))

	// 长度不足与非法 mod 都落到分区 0
	assert.Equal(t, uint32(0), PartitionHashBytes(sig[:16], 8))
	assert.Equal(t, uint32(0), PartitionHashBytes(sig, 0))
}

func TestParseUint64(t *testing.T) {
	v, ok := ParseUint64("1000")
	assert.True(t, ok)
	assert.Equal(t, uint64(1000), v)

	_, ok = ParseUint64("")
	assert.False(t, ok)
	_, ok = ParseUint64("-5")
	assert.False(t, ok)
	_, ok = ParseUint64("abc")
	assert.False(t, ok)

	v, ok = ParseUint64("18446744073709551615")
	assert.True(t, ok)
	assert.Equal(t, uint64(18446744073709551615), v)
}

func TestEncodeDecodeEvent(t *testing.T) {
	type payload struct {
		Name  string
		Value uint64
	}

	data, err := EncodeEvent(2, payload{Name: "x", Value: 7})
	require.NoError(t, err)

	eventType, body, err := DecodeEventType(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), eventType)
	assert.NotEmpty(t, body)

	_, _, err = DecodeEventType([]byte{1, 2})
	assert.Error(t, err, "长度不足 4 字节应报错")
}
