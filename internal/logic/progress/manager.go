package progress

import (
	"context"

	"solana-transfer-ledger/internal/store"
	"solana-transfer-ledger/pkg/logger"
)

// Manager 签名幂等判重：Redis 前置缓存 + 账本兜底。
// 流是 at-least-once 的，靠这里收敛成账本上的 effectively exactly-once。
type Manager struct {
	redis  *RedisSignatureStore // 可为 nil（未配置 Redis 时仅依赖账本判重）
	ledger *store.Ledger
}

func NewManager(redis *RedisSignatureStore, ledger *store.Ledger) *Manager {
	return &Manager{redis: redis, ledger: ledger}
}

// ShouldProcess 判断该签名是否需要处理：
//   - Redis 命中 → 已处理，跳过；
//   - Redis 未命中或异常 → 查账本；账本命中时回填 Redis 并跳过；
//   - 都未命中 → 处理。
//
// Redis 异常只降级为账本判重，不阻断处理链路。
func (m *Manager) ShouldProcess(ctx context.Context, signature string) (bool, error) {
	if m.redis != nil {
		processed, err := m.redis.IsProcessed(ctx, signature)
		if err != nil {
			logger.Warnf("[progress] redis 判重失败，降级到账本: %v", err)
		} else if processed {
			return false, nil
		}
	}

	exists, err := m.ledger.Signatures.Has(signature)
	if err != nil {
		return false, err
	}
	if exists {
		if m.redis != nil {
			_ = m.redis.MarkProcessed(ctx, signature)
		}
		return false, nil
	}
	return true, nil
}

// MarkProcessed 落库成功后写入 Redis 标记。失败只打日志：账本已持久化，标记只是加速。
func (m *Manager) MarkProcessed(ctx context.Context, signature string) {
	if m.redis == nil {
		return
	}
	if err := m.redis.MarkProcessed(ctx, signature); err != nil {
		logger.Warnf("[progress] redis 标记失败: sig=%s, err=%v", signature, err)
	}
}
