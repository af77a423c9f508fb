package types

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// Signature 表示交易签名（64 字节），展示层统一用 base58 字符串。
type Signature [64]byte

func (s Signature) String() string {
	return base58.Encode(s[:])
}

// SignatureFromBytes 从原始字节构造 Signature，长度非 64 时返回 error。
func SignatureFromBytes(b []byte) (Signature, error) {
	if len(b) != 64 {
		return Signature{}, fmt.Errorf("invalid signature length: got %d, want 64", len(b))
	}
	var s Signature
	copy(s[:], b)
	return s, nil
}
