package dispatcher

import (
	"testing"

	"github.com/near/borsh-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-transfer-ledger/internal/store"
	"solana-transfer-ledger/internal/utils"
)

func testRawSignature() []byte {
	sig := make([]byte, 64)
	for i := range sig {
		sig[i] = byte(i)
	}
	return sig
}

func TestBuildTransferKafkaJobs(t *testing.T) {
	rec := &store.TxRecord{
		Signature: "sig-abc",
		Slot:      100,
		Timestamp: 1_700_000_000,
		Success:   true,
		NativeTransfers: []store.StoredTransfer{
			{From: "A", To: "B", Amount: 999_990_000},
		},
		TokenTransfers: []store.StoredTransfer{
			{From: "C", To: "D", Amount: 500, Mint: "M", Decimals: 6},
		},
	}

	jobs, err := BuildTransferKafkaJobs("transfers", 8, testRawSignature(), rec)
	require.NoError(t, err)
	require.Len(t, jobs, 2, "每笔转账一条消息")

	// 同一笔交易的所有消息必须落在同一分区
	assert.Equal(t, jobs[0].Partition, jobs[1].Partition)
	assert.Equal(t, "transfers", jobs[0].Topic)

	// 原生币事件
	eventType, body, err := utils.DecodeEventType(jobs[0].Value)
	require.NoError(t, err)
	assert.Equal(t, EventTypeNativeTransfer, eventType)

	var event TransferEvent
	require.NoError(t, borsh.Deserialize(&event, body), "载荷应为合法 Borsh")
	assert.Equal(t, "sig-abc", event.Signature)
	assert.Equal(t, "A", event.From)
	assert.Equal(t, uint64(999_990_000), event.Amount)
	assert.Empty(t, event.Mint)

	// 代币事件
	eventType, body, err = utils.DecodeEventType(jobs[1].Value)
	require.NoError(t, err)
	assert.Equal(t, EventTypeTokenTransfer, eventType)
	require.NoError(t, borsh.Deserialize(&event, body))
	assert.Equal(t, "M", event.Mint)
	assert.Equal(t, uint8(6), event.Decimals)
}

func TestBuildTransferKafkaJobs_Empty(t *testing.T) {
	rec := &store.TxRecord{Signature: "sig-empty"}

	jobs, err := BuildTransferKafkaJobs("transfers", 8, testRawSignature(), rec)
	require.NoError(t, err)
	assert.Nil(t, jobs, "没有转账就不产生消息")
}
