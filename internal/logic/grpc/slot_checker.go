package grpc

import (
	"context"
	"time"

	"github.com/blocto/solana-go-sdk/rpc"

	"solana-transfer-ledger/internal/config"
	"solana-transfer-ledger/pkg/logger"
)

// SlotChecker 周期性对比链上最新 slot 与本地订阅进度，
// 落后超过阈值时告警，用于发现订阅流卡死或处理积压。
type SlotChecker struct {
	client    *rpc.RpcClient
	localSlot func() uint64 // 本地最近处理到的 slot
	interval  time.Duration
	maxLag    uint64
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewSlotChecker(conf config.SlotCheckConfig, localSlot func() uint64) *SlotChecker {
	interval := time.Duration(conf.CheckIntervalSec) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	maxLag := conf.MaxLagSlots
	if maxLag == 0 {
		maxLag = 100
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := rpc.NewRpcClient(conf.RpcEndpoint)
	return &SlotChecker{
		client:    &client,
		localSlot: localSlot,
		interval:  interval,
		maxLag:    maxLag,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *SlotChecker) Start() {
	s.run()
}

func (s *SlotChecker) Stop() {
	s.cancel()
}

func (s *SlotChecker) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			logger.Infof("[SlotChecker] stopped")
			return
		case <-ticker.C:
			s.checkOnce()
		}
	}
}

func (s *SlotChecker) checkOnce() {
	local := s.localSlot()
	if local == 0 {
		// 还没收到任何订阅更新，不具备对比基准
		return
	}

	chainSlot, err := s.getSlotWithRetry(3)
	if err != nil {
		logger.Warnf("[SlotChecker] getSlot failed after retries: %v", err)
		return
	}

	if chainSlot <= local {
		return
	}

	lag := chainSlot - local
	if lag > s.maxLag {
		logger.Errorf("[SlotChecker] 本地进度落后 %d 个 slot（chain=%d, local=%d），疑似订阅卡死或处理积压", lag, chainSlot, local)
	} else {
		logger.Debugf("[SlotChecker] lag=%d (chain=%d, local=%d)", lag, chainSlot, local)
	}
}

func (s *SlotChecker) getSlotWithRetry(maxRetries int) (uint64, error) {
	var (
		delay   = 300 * time.Millisecond
		attempt int
	)

	for {
		select {
		case <-s.ctx.Done():
			return 0, context.Canceled
		default:
		}

		ctx, cancel := context.WithTimeout(s.ctx, 6*time.Second)
		resp, err := s.client.GetSlot(ctx)
		cancel()

		if err == nil {
			return resp.Result, nil
		}

		attempt++
		if attempt >= maxRetries {
			return 0, err
		}

		time.Sleep(delay)
	}
}
