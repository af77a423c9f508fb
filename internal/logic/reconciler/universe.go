package reconciler

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// BuildAccountUniverse 构造交易中完整的账户地址列表。
// 将 message.accountKeys 与 Address Lookup Table 加载的 writable / readonly 地址
// 按此顺序拼接为一个 []string，余额数组的下标 i 即对应 universe[i]。
// 顺序是协议语义的一部分，任何重排都会让下游归因悄然出错。
func BuildAccountUniverse(staticKeys, loadedWritable, loadedReadonly [][]byte) []string {
	total := len(staticKeys) + len(loadedWritable) + len(loadedReadonly)
	universe := make([]string, 0, total)

	for _, b := range staticKeys {
		universe = append(universe, base58.Encode(b))
	}
	for _, b := range loadedWritable {
		universe = append(universe, base58.Encode(b))
	}
	for _, b := range loadedReadonly {
		universe = append(universe, base58.Encode(b))
	}
	return universe
}

// ResolveAccount 按索引解析账户地址，索引越界时退化为 unknown_<index> 占位符。
func ResolveAccount(universe []string, index int) string {
	if index >= 0 && index < len(universe) {
		return universe[index]
	}
	return fmt.Sprintf("unknown_%d", index)
}
