package store

import "solana-transfer-ledger/pkg/logger"

// LedgerStats 账本整体规模。
type LedgerStats struct {
	SignatureCount int `json:"signature_count"`
	AddressCount   int `json:"address_count"`
}

// Ledger 交易账本门面：签名维度与地址维度共用一个 badger 实例。
type Ledger struct {
	kv         *KVStore
	Signatures *SignatureStore
	Addresses  *AddressStore
}

// LedgerOption 账本初始化参数，由 config.StorageConfig.ToLedgerOption() 提供。
type LedgerOption struct {
	DBPath            string
	SignaturePrefix   string
	AddressPrefix     string
	MaxAddressRecords int
}

func OpenLedger(opt LedgerOption) (*Ledger, error) {
	kv, err := OpenKV(opt.DBPath)
	if err != nil {
		return nil, err
	}
	return &Ledger{
		kv:         kv,
		Signatures: NewSignatureStore(kv, opt.SignaturePrefix),
		Addresses:  NewAddressStore(kv, opt.AddressPrefix, opt.MaxAddressRecords),
	}, nil
}

func (l *Ledger) Close() error {
	return l.kv.Close()
}

// StoreTransaction 原子语义上的"处理一笔交易"：
// 签名已存在时整体跳过（保证地址历史不会重复计数），
// 否则先写签名记录，再建立双向地址索引。
func (l *Ledger) StoreTransaction(rec *TxRecord) (bool, error) {
	stored, err := l.Signatures.Put(rec)
	if err != nil {
		return false, err
	}
	if !stored {
		logger.Debugf("[store] 签名已存在，跳过: %s", rec.Signature)
		return false, nil
	}
	if err := l.Addresses.IndexTransaction(rec); err != nil {
		return true, err
	}
	return true, nil
}

// Stats 返回账本整体规模（全量扫键，仅用于低频查询接口）。
func (l *Ledger) Stats() (*LedgerStats, error) {
	sigCount, err := l.Signatures.Count()
	if err != nil {
		return nil, err
	}
	addrCount, err := l.Addresses.Count()
	if err != nil {
		return nil, err
	}
	return &LedgerStats{SignatureCount: sigCount, AddressCount: addrCount}, nil
}
