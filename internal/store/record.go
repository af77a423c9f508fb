package store

import (
	"github.com/near/borsh-go"

	"solana-transfer-ledger/internal/logic/reconciler"
)

// 存储值统一使用 Borsh 编码：定长、确定性、无字段名开销，
// 且与链上数据的编码习惯一致。结构体字段不使用指针以保持编码稳定。

// RecordRole 地址在一笔转账中的角色。
type RecordRole uint8

const (
	RoleSender   RecordRole = 1
	RoleReceiver RecordRole = 2
)

// RecordLeg 区分原生币转账与代币转账。
type RecordLeg uint8

const (
	LegNative RecordLeg = 1
	LegToken  RecordLeg = 2
)

// StoredTransfer 落库形态的单笔转账。原生币转账的 Mint 为空串、Decimals 为 0。
type StoredTransfer struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Amount   uint64 `json:"amount"`
	Mint     string `json:"mint,omitempty"`
	Decimals uint8  `json:"decimals"`
}

// TxRecord 签名维度的完整还原结果，签名幂等：同一签名只会写入一次。
type TxRecord struct {
	Signature       string           `json:"signature"`
	Slot            uint64           `json:"slot"`
	Timestamp       int64            `json:"timestamp"`
	Success         bool             `json:"success"`
	NativeTransfers []StoredTransfer `json:"native_transfers,omitempty"`
	TokenTransfers  []StoredTransfer `json:"token_transfers,omitempty"`
	Addresses       []string         `json:"addresses,omitempty"` // 交易触达的去重地址集合
}

// AddressRecord 地址维度的单条参与记录。
type AddressRecord struct {
	Signature    string     `json:"signature"`
	Timestamp    int64      `json:"timestamp"`
	Slot         uint64     `json:"slot"`
	Leg          RecordLeg  `json:"leg"`
	Role         RecordRole `json:"role"`
	Counterparty string     `json:"counterparty"`
	Amount       uint64     `json:"amount"`
	Mint         string     `json:"mint,omitempty"`
	Decimals     uint8      `json:"decimals"`
}

// AddressHistory 单个地址的参与历史，Records[0] 永远是最新的一条。
type AddressHistory struct {
	Address     string          `json:"address"`
	Records     []AddressRecord `json:"records"`
	LastUpdated int64           `json:"last_updated"`
}

// AddressStats 从地址历史推导的统计信息，不落库。
type AddressStats struct {
	Address             string `json:"address"`
	TotalRecords        int    `json:"total_records"`
	NativeSentCount     int    `json:"native_sent_count"`
	NativeReceivedCount int    `json:"native_received_count"`
	TokenSentCount      int    `json:"token_sent_count"`
	TokenReceivedCount  int    `json:"token_received_count"`
	TotalNativeSent     uint64 `json:"total_native_sent"`
	TotalNativeReceived uint64 `json:"total_native_received"`
}

// ToStoredTransfers 把还原引擎的输出转换为落库形态。
func ToStoredTransfers(records []reconciler.TransferRecord) []StoredTransfer {
	if len(records) == 0 {
		return nil
	}
	out := make([]StoredTransfer, 0, len(records))
	for _, r := range records {
		out = append(out, StoredTransfer{
			From:     r.From,
			To:       r.To,
			Amount:   r.Amount,
			Mint:     r.Mint,
			Decimals: r.Decimals,
		})
	}
	return out
}

func encodeTxRecord(rec *TxRecord) ([]byte, error) {
	return borsh.Serialize(*rec)
}

func decodeTxRecord(data []byte) (*TxRecord, error) {
	var rec TxRecord
	if err := borsh.Deserialize(&rec, data); err != nil {
		return nil, err
	}
	return &rec, nil
}

func encodeAddressHistory(h *AddressHistory) ([]byte, error) {
	return borsh.Serialize(*h)
}

func decodeAddressHistory(data []byte) (*AddressHistory, error) {
	var h AddressHistory
	if err := borsh.Deserialize(&h, data); err != nil {
		return nil, err
	}
	return &h, nil
}
