// Package dispatcher 把一笔交易的还原结果展开为 Kafka 消息。
package dispatcher

import (
	"fmt"

	"solana-transfer-ledger/internal/consts"
	"solana-transfer-ledger/internal/mq"
	"solana-transfer-ledger/internal/store"
	"solana-transfer-ledger/internal/utils"
	pkgutils "solana-transfer-ledger/pkg/utils"
)

// 事件类型前缀（与载荷一起写入消息体，消费方据此分发）
const (
	EventTypeNativeTransfer uint32 = 1
	EventTypeTokenTransfer  uint32 = 2
)

// TransferEvent Kafka 消息载荷（Borsh 编码）。
// 原生币转账的 Mint 为空串、Decimals 为 0。
type TransferEvent struct {
	Signature string
	Slot      uint64
	Timestamp int64
	From      string
	To        string
	Amount    uint64
	Mint      string
	Decimals  uint8
}

// BuildTransferKafkaJobs 把一笔交易的全部转账展开为 Kafka 消息。
// 分区由原始签名字节哈希决定：同一笔交易的所有事件固定落在同一分区，
// 保证消费侧按交易维度有序。
func BuildTransferKafkaJobs(
	topic string,
	partitions uint32,
	rawSignature []byte,
	rec *store.TxRecord,
) ([]*mq.KafkaJob, error) {
	total := len(rec.NativeTransfers) + len(rec.TokenTransfers)
	if total == 0 {
		return nil, nil
	}

	partition := int32(utils.PartitionHashBytes(rawSignature, partitions))

	type pendingEvent struct {
		eventType uint32
		event     TransferEvent
	}
	pending := make([]pendingEvent, 0, total)
	collect := func(transfers []store.StoredTransfer, eventType uint32) {
		for _, t := range transfers {
			pending = append(pending, pendingEvent{
				eventType: eventType,
				event: TransferEvent{
					Signature: rec.Signature,
					Slot:      rec.Slot,
					Timestamp: rec.Timestamp,
					From:      t.From,
					To:        t.To,
					Amount:    t.Amount,
					Mint:      t.Mint,
					Decimals:  t.Decimals,
				},
			})
		}
	}
	collect(rec.NativeTransfers, EventTypeNativeTransfer)
	collect(rec.TokenTransfers, EventTypeTokenTransfer)

	type encoded struct {
		value []byte
		err   error
	}
	results := pkgutils.ParallelMap(pending, consts.CpuCount, func(p pendingEvent) encoded {
		value, err := utils.EncodeEvent(p.eventType, p.event)
		return encoded{value: value, err: err}
	})

	jobs := make([]*mq.KafkaJob, 0, total)
	for _, res := range results {
		if res.err != nil {
			return nil, fmt.Errorf("encode transfer event: %w", res.err)
		}
		jobs = append(jobs, &mq.KafkaJob{
			Topic:     topic,
			Partition: partition,
			Value:     res.value,
		})
	}
	return jobs, nil
}
