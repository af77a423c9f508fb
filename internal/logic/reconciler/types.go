package reconciler

// 哨兵地址：代币余额变化没有链上对手方时（净供给变化）用作 from/to 占位。
const (
	MintAirdropAddress = "MINT/AIRDROP"
	BurnDestroyAddress = "BURN/DESTROY"
)

// TransferKind 区分原生币转账与代币转账。
type TransferKind uint8

const (
	TransferNative TransferKind = iota + 1
	TransferToken
)

func (k TransferKind) String() string {
	switch k {
	case TransferNative:
		return "native"
	case TransferToken:
		return "token"
	default:
		return "unknown"
	}
}

// TransferRecord 一条方向化的转账记录。
// Amount 一律取接收方侧观测到的增量（receiver-authoritative）：
// 原生币的发送方减少量含手续费，代币的发送方减少量含滑点与抽佣，均不可直接作为转账金额。
type TransferRecord struct {
	Signature string
	From      string
	To        string
	Amount    uint64
	Kind      TransferKind
	Mint      string // 仅 Kind == TransferToken 时有效
	Decimals  uint8  // 仅 Kind == TransferToken 时有效
	Timestamp int64
}

// TokenSnapshotEntry 代币余额快照（pre 或 post）中的一条记录。
// RawAmount 为十进制字符串形态的最小单位数量，解析失败时跳过该条目而非中断整笔交易。
type TokenSnapshotEntry struct {
	AccountIndex uint32
	Mint         string
	Decimals     uint8
	RawAmount    string
}

// DebugConfig 控制引擎的逐笔匹配调试输出，由调用方显式注入。
type DebugConfig struct {
	Enabled bool
}
