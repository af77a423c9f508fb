package reconciler

import "solana-transfer-ledger/pkg/logger"

// Engine 转账还原引擎：从交易前后的余额快照反推方向化转账。
// 无内部状态、无 I/O（仅诊断日志），可被任意数量的 worker 并发调用。
type Engine struct {
	debug DebugConfig
}

func NewEngine(debug DebugConfig) *Engine {
	return &Engine{debug: debug}
}

func (e *Engine) debugf(format string, args ...any) {
	if e.debug.Enabled {
		logger.Debugf(format, args...)
	}
}
