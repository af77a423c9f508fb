package reconciler

import "solana-transfer-ledger/pkg/logger"

// ReconcileNative 从原生币 pre/post 余额快照反推转账记录。
// 纯函数：同样的输入永远得到同样的输出（含顺序），可并发调用。
//
// 异常输入一律降级为空结果而非报错：
//   - pre/post 长度不一致，或 universe 短于余额数组 → 打 warning 返回空；
//   - 没有任何接收方 → 视为发送方只付了手续费，返回空。
func (e *Engine) ReconcileNative(universe []string, pre, post []uint64, signature string, timestamp int64) []TransferRecord {
	if len(pre) != len(post) {
		logger.Warnf("[reconciler] 前后余额数组长度不一致: pre=%d, post=%d, tx=%s",
			len(pre), len(post), signature)
		return nil
	}
	if len(universe) < len(pre) {
		logger.Warnf("[reconciler] 账户地址数量不足: addresses=%d, balances=%d, tx=%s",
			len(universe), len(pre), signature)
		return nil
	}

	// 计算非零余额变化，按原始索引顺序分为发送方（减少）和接收方（增加）
	var senders, receivers []accountDelta
	for i := range pre {
		switch {
		case post[i] < pre[i]:
			senders = append(senders, accountDelta{
				index:   i,
				address: ResolveAccount(universe, i),
				amount:  pre[i] - post[i],
			})
		case post[i] > pre[i]:
			receivers = append(receivers, accountDelta{
				index:   i,
				address: ResolveAccount(universe, i),
				amount:  post[i] - pre[i],
			})
		}
	}

	e.debugf("[reconciler] tx=%s 发现 %d 个转出方, %d 个接收方", signature, len(senders), len(receivers))

	// 只有转出方没有接收方：整笔交易只是 gas 消耗，不算转账
	if len(receivers) == 0 {
		return nil
	}

	st := newMatchState(signature, timestamp, senders, receivers)
	for _, pass := range nativePasses {
		pass.Run(e, st)
	}
	return st.records
}
