package store

import (
	"fmt"
	"time"

	"solana-transfer-ledger/pkg/logger"
)

// AddressStore 地址维度的账本：address → 有界的最新优先参与历史。
type AddressStore struct {
	kv         *KVStore
	prefix     []byte
	maxRecords int
}

func NewAddressStore(kv *KVStore, prefix string, maxRecords int) *AddressStore {
	if maxRecords <= 0 {
		maxRecords = 1000
	}
	return &AddressStore{kv: kv, prefix: []byte(prefix), maxRecords: maxRecords}
}

func (s *AddressStore) key(address string) []byte {
	return append(append([]byte{}, s.prefix...), address...)
}

// AddRecord 为地址追加一条参与记录：插到头部（索引 0 最新），
// 超过上限时截断尾部的最老记录。
func (s *AddressStore) AddRecord(address string, rec AddressRecord) error {
	key := s.key(address)

	history := &AddressHistory{Address: address}
	data, found, err := s.kv.Get(key)
	if err != nil {
		return fmt.Errorf("读取地址历史失败: %w", err)
	}
	if found {
		history, err = decodeAddressHistory(data)
		if err != nil {
			return fmt.Errorf("解码地址历史失败: %w", err)
		}
	}

	history.Records = append([]AddressRecord{rec}, history.Records...)
	history.LastUpdated = time.Now().Unix()
	if len(history.Records) > s.maxRecords {
		removed := len(history.Records) - s.maxRecords
		history.Records = history.Records[:s.maxRecords]
		logger.Debugf("[store] 地址 %s 截断了 %d 条最老记录", address, removed)
	}

	encoded, err := encodeAddressHistory(history)
	if err != nil {
		return fmt.Errorf("编码地址历史失败: %w", err)
	}
	return s.kv.Put(key, encoded)
}

// History 返回地址的完整历史；无记录时返回 (nil, nil)。
func (s *AddressStore) History(address string) (*AddressHistory, error) {
	data, found, err := s.kv.Get(s.key(address))
	if err != nil {
		return nil, fmt.Errorf("读取地址历史失败: %w", err)
	}
	if !found {
		return nil, nil
	}
	return decodeAddressHistory(data)
}

// RecentRecords 从最新一条开始，跳过 offset 条后返回至多 limit 条记录。
func (s *AddressStore) RecentRecords(address string, offset, limit int) ([]AddressRecord, error) {
	history, err := s.History(address)
	if err != nil || history == nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(history.Records) {
		return []AddressRecord{}, nil
	}
	end := offset + limit
	if end > len(history.Records) {
		end = len(history.Records)
	}
	return history.Records[offset:end], nil
}

// Addresses 分页列出有记录的地址（按键序）。
func (s *AddressStore) Addresses(offset, limit int) ([]string, error) {
	return s.kv.KeysByPrefix(s.prefix, offset, limit)
}

func (s *AddressStore) Count() (int, error) {
	return s.kv.CountByPrefix(s.prefix)
}

// Stats 从有界历史推导地址统计。历史有上限，统计口径同样是"最近 N 条"。
func (s *AddressStore) Stats(address string) (*AddressStats, error) {
	records, err := s.RecentRecords(address, 0, s.maxRecords)
	if err != nil {
		return nil, err
	}

	stats := &AddressStats{Address: address, TotalRecords: len(records)}
	for _, rec := range records {
		switch {
		case rec.Leg == LegNative && rec.Role == RoleSender:
			stats.NativeSentCount++
			stats.TotalNativeSent += rec.Amount
		case rec.Leg == LegNative && rec.Role == RoleReceiver:
			stats.NativeReceivedCount++
			stats.TotalNativeReceived += rec.Amount
		case rec.Leg == LegToken && rec.Role == RoleSender:
			stats.TokenSentCount++
		case rec.Leg == LegToken && rec.Role == RoleReceiver:
			stats.TokenReceivedCount++
		}
	}
	return stats, nil
}

// IndexTransaction 把一笔交易的全部转账按发送方与接收方双向建立地址索引。
// 哨兵地址（MINT/AIRDROP、BURN/DESTROY）同样入索引，方便按供给变化检索。
func (s *AddressStore) IndexTransaction(rec *TxRecord) error {
	index := func(transfers []StoredTransfer, leg RecordLeg) error {
		for _, t := range transfers {
			sender := AddressRecord{
				Signature:    rec.Signature,
				Timestamp:    rec.Timestamp,
				Slot:         rec.Slot,
				Leg:          leg,
				Role:         RoleSender,
				Counterparty: t.To,
				Amount:       t.Amount,
				Mint:         t.Mint,
				Decimals:     t.Decimals,
			}
			if err := s.AddRecord(t.From, sender); err != nil {
				return err
			}

			receiver := sender
			receiver.Role = RoleReceiver
			receiver.Counterparty = t.From
			if err := s.AddRecord(t.To, receiver); err != nil {
				return err
			}
		}
		return nil
	}

	if err := index(rec.NativeTransfers, LegNative); err != nil {
		return err
	}
	return index(rec.TokenTransfers, LegToken)
}
