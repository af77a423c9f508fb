package reconciler

import (
	"math"

	"solana-transfer-ledger/internal/utils"
)

// tokenDelta 单个 (token account, mint) 的余额变化（幅值形态）。
type tokenDelta struct {
	accountIndex uint32
	decimals     uint8
	increase     bool
	amount       uint64
}

// mintGroup 同一 mint 下的全部余额变化，按发现顺序收集。
type mintGroup struct {
	mint   string
	deltas []tokenDelta
}

// tokenKey 代币余额条目的逻辑主键。
type tokenKey struct {
	index uint32
	mint  string
}

// ReconcileToken 从代币 pre/post 余额快照反推代币转账记录。
// 与原生币不同，代币账户可以在交易中被创建或关闭，pre/post 不是平行数组，
// 因此以 (accountIndex, mint) 为键做快照差分。
//
// 确定性说明：差分与 mint 分组都按列表发现顺序（先 post 后 pre）而非 map 迭代
// 顺序构建，保证同样的输入产出同序的结果。
func (e *Engine) ReconcileToken(universe []string, pre, post []TokenSnapshotEntry, signature string, timestamp int64) []TransferRecord {
	if len(pre) == 0 && len(post) == 0 {
		return nil
	}

	preMap := make(map[tokenKey]TokenSnapshotEntry, len(pre))
	for _, entry := range pre {
		preMap[tokenKey{entry.AccountIndex, entry.Mint}] = entry
	}

	// 差分：先按 post 列表处理存续/新建账户，再扫 pre 列表捕捉被关闭的账户。
	// RawAmount 解析失败只跳过该条目（ParseError 非致命）。
	seenPost := make(map[tokenKey]bool, len(post))
	var deltas []tokenDelta
	var mints []string // 与 deltas 平行，承载每条变化的 mint
	for _, p := range post {
		k := tokenKey{p.AccountIndex, p.Mint}
		if seenPost[k] {
			continue
		}
		seenPost[k] = true

		postRaw, ok := utils.ParseUint64(p.RawAmount)
		if !ok {
			continue
		}
		if pe, exists := preMap[k]; exists {
			preRaw, ok := utils.ParseUint64(pe.RawAmount)
			if !ok {
				continue
			}
			switch {
			case postRaw > preRaw:
				deltas = append(deltas, tokenDelta{p.AccountIndex, p.Decimals, true, postRaw - preRaw})
				mints = append(mints, p.Mint)
			case preRaw > postRaw:
				deltas = append(deltas, tokenDelta{p.AccountIndex, p.Decimals, false, preRaw - postRaw})
				mints = append(mints, p.Mint)
			}
		} else if postRaw > 0 {
			// 新开的代币账户，全部余额视为转入
			deltas = append(deltas, tokenDelta{p.AccountIndex, p.Decimals, true, postRaw})
			mints = append(mints, p.Mint)
		}
	}
	seenPre := make(map[tokenKey]bool, len(pre))
	for _, pe := range pre {
		k := tokenKey{pe.AccountIndex, pe.Mint}
		if seenPost[k] || seenPre[k] {
			continue
		}
		seenPre[k] = true

		preRaw, ok := utils.ParseUint64(pe.RawAmount)
		if !ok || preRaw == 0 {
			continue
		}
		// 账户被关闭，余额全部流出
		deltas = append(deltas, tokenDelta{pe.AccountIndex, pe.Decimals, false, preRaw})
		mints = append(mints, pe.Mint)
	}

	// 按 mint 分组，组顺序即发现顺序
	groupIndex := make(map[string]int)
	var groups []mintGroup
	for i, d := range deltas {
		idx, ok := groupIndex[mints[i]]
		if !ok {
			idx = len(groups)
			groupIndex[mints[i]] = idx
			groups = append(groups, mintGroup{mint: mints[i]})
		}
		groups[idx].deltas = append(groups[idx].deltas, d)
	}

	var records []TransferRecord
	for _, g := range groups {
		records = e.matchMintGroup(records, g, universe, signature, timestamp)
	}
	return records
}

// matchMintGroup 在单个 mint 组内把增减配对成转账记录。
func (e *Engine) matchMintGroup(records []TransferRecord, g mintGroup, universe []string, signature string, timestamp int64) []TransferRecord {
	var increases, decreases []tokenDelta
	for _, d := range g.deltas {
		if d.increase {
			increases = append(increases, d)
		} else {
			decreases = append(decreases, d)
		}
	}

	e.debugf("[reconciler] tx=%s mint=%s: %d 个增加, %d 个减少",
		signature, g.mint, len(increases), len(decreases))

	emit := func(from, to string, amount uint64, decimals uint8) []TransferRecord {
		return append(records, TransferRecord{
			Signature: signature,
			From:      from,
			To:        to,
			Amount:    amount,
			Kind:      TransferToken,
			Mint:      g.mint,
			Decimals:  decimals,
			Timestamp: timestamp,
		})
	}

	switch {
	// 一对一：比例在 10 倍以内即认定为转账，金额取接收侧增量
	case len(increases) == 1 && len(decreases) == 1:
		to, from := increases[0], decreases[0]
		if to.amount >= from.amount/10 && to.amount <= from.amount*10 {
			records = emit(
				ResolveAccount(universe, int(from.accountIndex)),
				ResolveAccount(universe, int(to.accountIndex)),
				to.amount, to.decimals,
			)
		}

	// 多对多：每个增加按比例贪心挑最接近的未用减少；配不上的两侧直接丢弃，不做兜底
	case len(increases) > 0 && len(decreases) > 0:
		usedDecreases := make([]bool, len(decreases))
		for _, inc := range increases {
			best := -1
			bestRatio := math.Inf(1)
			for i, dec := range decreases {
				if usedDecreases[i] {
					continue
				}
				var ratio float64
				if dec.amount > inc.amount {
					ratio = float64(dec.amount) / float64(inc.amount)
				} else {
					ratio = float64(inc.amount) / float64(dec.amount)
				}
				if ratio <= 10.0 && ratio < bestRatio {
					bestRatio = ratio
					best = i
				}
			}
			if best >= 0 {
				usedDecreases[best] = true
				records = emit(
					ResolveAccount(universe, int(decreases[best].accountIndex)),
					ResolveAccount(universe, int(inc.accountIndex)),
					inc.amount, inc.decimals,
				)
			}
		}

	// 只有增加：mint、空投或跨链转入
	case len(increases) > 0:
		for _, inc := range increases {
			if inc.amount >= 1 {
				records = emit(MintAirdropAddress, ResolveAccount(universe, int(inc.accountIndex)), inc.amount, inc.decimals)
			}
		}

	// 只有减少：burn、跨链转出或账户销毁
	case len(decreases) > 0:
		for _, dec := range decreases {
			if dec.amount >= 1 {
				records = emit(ResolveAccount(universe, int(dec.accountIndex)), BurnDestroyAddress, dec.amount, dec.decimals)
			}
		}
	}
	return records
}
