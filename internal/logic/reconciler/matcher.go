package reconciler

import "sort"

// 原生币匹配的固定阈值（lamports）。这些是刻意保留的经验值，
// 下游消费方可能依赖具体数值，调整前需同步所有消费方。
const (
	// dustFloorLamports 尘埃线：低于 0.0001 SOL 的增量视为噪声（租金、手续费返还）。
	dustFloorLamports = 100_000
	// maxGasFeeLamports 1:1 匹配允许吸收的最大手续费：0.01 SOL。
	maxGasFeeLamports = 10_000_000
	// fallbackMinLamports 兜底匹配只处理超过 0.001 SOL 的接收方。
	fallbackMinLamports = 1_000_000
)

// MatchStrategy 标识一条原生币转账由哪种匹配策略产生。
type MatchStrategy uint8

const (
	ExactMatch MatchStrategy = iota + 1 // 容差 1:1 匹配
	OneToMany                          // 一个发送方对多个接收方
	ManyToOne                          // 多个发送方对一个接收方
	Fallback                           // 兜底推测匹配
)

func (s MatchStrategy) String() string {
	switch s {
	case ExactMatch:
		return "exact"
	case OneToMany:
		return "one_to_many"
	case ManyToOne:
		return "many_to_one"
	case Fallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// accountDelta 单个账户的原生币余额变化（幅值形态，方向由所在分组决定）。
type accountDelta struct {
	index   int
	address string
	amount  uint64
}

// matchState 四趟匹配共享的工作区：增减分组、used 标记与已产出的记录。
type matchState struct {
	signature string
	timestamp int64

	senders   []accountDelta
	receivers []accountDelta

	senderUsed   []bool
	receiverUsed []bool

	records []TransferRecord
}

func newMatchState(signature string, timestamp int64, senders, receivers []accountDelta) *matchState {
	return &matchState{
		signature:    signature,
		timestamp:    timestamp,
		senders:      senders,
		receivers:    receivers,
		senderUsed:   make([]bool, len(senders)),
		receiverUsed: make([]bool, len(receivers)),
	}
}

func (st *matchState) emit(from, to accountDelta, amount uint64) {
	st.records = append(st.records, TransferRecord{
		Signature: st.signature,
		From:      from.address,
		To:        to.address,
		Amount:    amount,
		Kind:      TransferNative,
		Timestamp: st.timestamp,
	})
}

// nativeMatchPass 单趟匹配策略。四种策略按固定顺序依次执行，
// 每种策略可独立测试与替换。
type nativeMatchPass interface {
	Strategy() MatchStrategy
	Run(e *Engine, st *matchState)
}

// nativePasses 四趟匹配的执行顺序：先容差 1:1，再一对多、多对一，最后兜底。
var nativePasses = []nativeMatchPass{
	exactMatchPass{},
	oneToManyPass{},
	manyToOnePass{},
	fallbackPass{},
}

// exactMatchPass 容差 1:1 匹配：按迭代顺序 first-fit，不做 best-fit。
type exactMatchPass struct{}

func (exactMatchPass) Strategy() MatchStrategy { return ExactMatch }

func (p exactMatchPass) Run(e *Engine, st *matchState) {
	for i, sender := range st.senders {
		if st.senderUsed[i] {
			continue
		}
		for j, receiver := range st.receivers {
			if st.receiverUsed[j] {
				continue
			}
			if isTolerantMatch(sender.amount, receiver.amount) {
				st.emit(sender, receiver, receiver.amount)
				st.senderUsed[i] = true
				st.receiverUsed[j] = true
				e.debugf("[reconciler] %s 匹配转账: %s -> %s (%d lamports)",
					p.Strategy(), sender.address, receiver.address, receiver.amount)
				break
			}
		}
	}
}

// isTolerantMatch 判断一对增减是否构成 1:1 转账：
// 金额完全相等，或发送方多出的部分落在 max(发送额 1%, 0.01 SOL) 的手续费容差内。
func isTolerantMatch(sendAmount, receiveAmount uint64) bool {
	if sendAmount == receiveAmount {
		return true
	}
	if sendAmount < receiveAmount {
		return false
	}
	maxAllowed := sendAmount / 100
	if maxAllowed < maxGasFeeLamports {
		maxAllowed = maxGasFeeLamports
	}
	return sendAmount-receiveAmount <= maxAllowed
}

// oneToManyPass 一对多：一个发送方的预算按金额从大到小贪心分给多个接收方。
type oneToManyPass struct{}

func (oneToManyPass) Strategy() MatchStrategy { return OneToMany }

func (p oneToManyPass) Run(e *Engine, st *matchState) {
	for i, sender := range st.senders {
		if st.senderUsed[i] {
			continue
		}
		sendAmount := sender.amount
		remaining := sendAmount

		// 候选接收方：金额不超过发送额的 150%（利息、奖励等），且不低于尘埃线
		type candidate struct {
			j      int
			amount uint64
		}
		var candidates []candidate
		for j, receiver := range st.receivers {
			if st.receiverUsed[j] {
				continue
			}
			if receiver.amount <= sendAmount*15/10 && receiver.amount >= dustFloorLamports {
				candidates = append(candidates, candidate{j, receiver.amount})
			}
		}

		// 按接收金额从大到小排序；stable 保证同额候选维持发现顺序
		sort.SliceStable(candidates, func(a, b int) bool {
			return candidates[a].amount > candidates[b].amount
		})

		for _, c := range candidates {
			if remaining < dustFloorLamports {
				break
			}
			if c.amount <= remaining*11/10 { // 允许 10% 超出（手续费等）
				st.emit(sender, st.receivers[c.j], c.amount)
				st.receiverUsed[c.j] = true
				remaining = saturatingSub(remaining, c.amount)
				e.debugf("[reconciler] %s 匹配转账: %s -> %s (%d lamports, 剩余 %d)",
					p.Strategy(), sender.address, st.receivers[c.j].address, c.amount, remaining)
			}
		}

		// 消耗过半才视为该发送方已被解释
		if remaining < sendAmount/2 {
			st.senderUsed[i] = true
		}
	}
}

// manyToOnePass 多对一：多个发送方按金额从大到小凑一个接收方的所需金额。
type manyToOnePass struct{}

func (manyToOnePass) Strategy() MatchStrategy { return ManyToOne }

func (p manyToOnePass) Run(e *Engine, st *matchState) {
	for j, receiver := range st.receivers {
		if st.receiverUsed[j] {
			continue
		}
		needed := receiver.amount
		remainingNeeded := needed

		type candidate struct {
			i      int
			amount uint64
		}
		var candidates []candidate
		for i, sender := range st.senders {
			if !st.senderUsed[i] && sender.amount >= dustFloorLamports {
				candidates = append(candidates, candidate{i, sender.amount})
			}
		}
		sort.SliceStable(candidates, func(a, b int) bool {
			return candidates[a].amount > candidates[b].amount
		})

		for _, c := range candidates {
			if remainingNeeded < dustFloorLamports {
				break
			}
			used := c.amount
			if limit := remainingNeeded * 11 / 10; used > limit { // 允许 10% 超出
				used = limit
			}
			amount := used
			if amount > remainingNeeded {
				amount = remainingNeeded
			}
			st.emit(st.senders[c.i], receiver, amount)
			remainingNeeded = saturatingSub(remainingNeeded, amount)
			e.debugf("[reconciler] %s 匹配转账: %s -> %s (%d lamports, 还需 %d)",
				p.Strategy(), st.senders[c.i].address, receiver.address, amount, remainingNeeded)

			// 发送方的大部分金额（≥80%）被消耗才标记为已使用
			if used >= c.amount*8/10 {
				st.senderUsed[c.i] = true
			}
		}

		if remainingNeeded < needed/2 {
			st.receiverUsed[j] = true
		}
	}
}

// fallbackPass 兜底：显著的未解释接收方配对第一个可用发送方，金额取接收方全量。
// 发送方不标记已使用，同一发送方可为多个兜底接收方背书。
type fallbackPass struct{}

func (fallbackPass) Strategy() MatchStrategy { return Fallback }

func (p fallbackPass) Run(e *Engine, st *matchState) {
	for j, receiver := range st.receivers {
		if st.receiverUsed[j] || receiver.amount <= fallbackMinLamports {
			continue
		}
		for i, sender := range st.senders {
			if !st.senderUsed[i] && sender.amount > dustFloorLamports {
				st.emit(sender, receiver, receiver.amount)
				e.debugf("[reconciler] %s 匹配转账: %s -> %s (%d lamports)",
					p.Strategy(), sender.address, receiver.address, receiver.amount)
				break
			}
		}
	}
}

func saturatingSub(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}
