package store

import "fmt"

// SignatureStore 签名维度的账本：signature → TxRecord。
type SignatureStore struct {
	kv     *KVStore
	prefix []byte
}

func NewSignatureStore(kv *KVStore, prefix string) *SignatureStore {
	return &SignatureStore{kv: kv, prefix: []byte(prefix)}
}

func (s *SignatureStore) key(signature string) []byte {
	return append(append([]byte{}, s.prefix...), signature...)
}

// Put 写入一条签名记录。签名幂等：已存在时跳过并返回 false。
func (s *SignatureStore) Put(rec *TxRecord) (bool, error) {
	key := s.key(rec.Signature)
	exists, err := s.kv.Has(key)
	if err != nil {
		return false, fmt.Errorf("检查签名是否存在失败: %w", err)
	}
	if exists {
		return false, nil
	}

	data, err := encodeTxRecord(rec)
	if err != nil {
		return false, fmt.Errorf("编码签名记录失败: %w", err)
	}
	if err := s.kv.Put(key, data); err != nil {
		return false, fmt.Errorf("写入签名记录失败: %w", err)
	}
	return true, nil
}

// Get 按签名查询记录；不存在时返回 (nil, nil)。
func (s *SignatureStore) Get(signature string) (*TxRecord, error) {
	data, found, err := s.kv.Get(s.key(signature))
	if err != nil {
		return nil, fmt.Errorf("读取签名记录失败: %w", err)
	}
	if !found {
		return nil, nil
	}
	return decodeTxRecord(data)
}

func (s *SignatureStore) Has(signature string) (bool, error) {
	return s.kv.Has(s.key(signature))
}

// Signatures 分页列出已存储的签名（按键序）。
func (s *SignatureStore) Signatures(offset, limit int) ([]string, error) {
	return s.kv.KeysByPrefix(s.prefix, offset, limit)
}

func (s *SignatureStore) Count() (int, error) {
	return s.kv.CountByPrefix(s.prefix)
}
