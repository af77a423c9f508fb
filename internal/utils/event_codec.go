package utils

import (
	"encoding/binary"
	"fmt"

	"github.com/near/borsh-go"
)

// EncodeEvent 将事件载荷编码为带类型前缀的二进制数据：
// - 前 4 字节为事件类型（uint32，小端序）
// - 后续为 Borsh 序列化的载荷
// 消费方先读前缀分发，再按类型解码载荷。
func EncodeEvent(eventType uint32, payload any) ([]byte, error) {
	body, err := borsh.Serialize(payload)
	if err != nil {
		return nil, fmt.Errorf("EncodeEvent: serialize %T: %w", payload, err)
	}

	buf := make([]byte, 4, 4+len(body))
	binary.LittleEndian.PutUint32(buf[:4], eventType)
	return append(buf, body...), nil
}

// DecodeEventType 读取事件类型前缀，返回类型与载荷部分。
func DecodeEventType(data []byte) (uint32, []byte, error) {
	if len(data) < 4 {
		return 0, nil, fmt.Errorf("DecodeEventType: data too short: %d", len(data))
	}
	return binary.LittleEndian.Uint32(data[:4]), data[4:], nil
}
