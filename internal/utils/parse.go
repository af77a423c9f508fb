package utils

import "strconv"

// ParseUint64 解析十进制无符号整数字符串（token 余额的 raw amount 形态）。
// 解析失败返回 (0, false)，调用方据此跳过该条目而非中断整笔交易。
func ParseUint64(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
