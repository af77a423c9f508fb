package grpc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/zeromicro/go-zero/core/logx"
	"google.golang.org/protobuf/proto"

	"solana-transfer-ledger/internal/consts"
	"solana-transfer-ledger/internal/logic/addrindex"
	"solana-transfer-ledger/internal/logic/dispatcher"
	"solana-transfer-ledger/internal/logic/reconciler"
	"solana-transfer-ledger/internal/mq"
	"solana-transfer-ledger/internal/store"
	"solana-transfer-ledger/internal/svc"
	"solana-transfer-ledger/pkg/types"
)

// TxProcessor 消费订阅流推来的交易，逐笔还原转账并写入账本。
type TxProcessor struct {
	sc      *svc.ServiceContext
	txChan  chan *pb.SubscribeUpdateTransaction
	workers int
	ctx     context.Context
	cancel  func(err error)
	wg      sync.WaitGroup
	logx.Logger
}

func NewTxProcessor(sc *svc.ServiceContext, txChan chan *pb.SubscribeUpdateTransaction) *TxProcessor {
	workers := sc.Config.MonitorConf.Workers
	if workers <= 0 {
		workers = consts.CpuCount
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	return &TxProcessor{
		sc:      sc,
		txChan:  txChan,
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
		Logger:  logx.WithContext(ctx).WithFields(logx.Field("service", "tx_processor")),
	}
}

func (p *TxProcessor) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.workLoop()
	}
	p.wg.Wait()
}

func (p *TxProcessor) Stop() {
	p.cancel(errors.New("service stop"))
}

func (p *TxProcessor) workLoop() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return // 退出
		case update := <-p.txChan:
			p.procTx(update)
			if len(p.txChan) > 100 {
				p.Debugf("tx chan len: %v", len(p.txChan))
			}
		}
	}
}

// IsValidGrpcTx 校验交易结构是否完整可解析。
// 投票/失败交易由订阅过滤与配置决定，不在这里一刀切。
func IsValidGrpcTx(tx *pb.SubscribeUpdateTransactionInfo) bool {
	if tx == nil || // - nil transaction info
		tx.Transaction == nil || // - missing Transaction field
		tx.Transaction.Message == nil || // - missing Message field in transaction
		len(tx.Transaction.Signatures) == 0 || // - missing transaction signature
		len(tx.Transaction.Signatures[0]) != 64 || // - invalid transaction signature length
		tx.Meta == nil { // - missing transaction meta data
		return false
	}
	return true
}

func (p *TxProcessor) procTx(update *pb.SubscribeUpdateTransaction) {
	if update == nil {
		return
	}
	tx := update.Transaction
	if !IsValidGrpcTx(tx) {
		return
	}
	if tx.IsVote && !p.sc.Config.MonitorConf.IncludeVoteTransactions {
		return
	}
	if tx.Meta.Err != nil && !p.sc.Config.MonitorConf.IncludeFailedTransactions {
		return
	}

	rawSig := tx.Transaction.Signatures[0]
	sig, err := types.SignatureFromBytes(rawSig)
	if err != nil {
		p.Slowf("签名解析失败，跳过交易: slot=%d, err=%v", update.Slot, err)
		return
	}
	signature := sig.String()

	// 幂等判重：Redis 命中或账本已存在则跳过。
	// 判重本身失败时按"需要处理"继续，重复写由落库层的签名幂等兜底。
	ok, err := p.sc.Progress.ShouldProcess(p.ctx, signature)
	if err != nil {
		p.Slowf("判重检查失败，按需要处理继续: sig=%s, err=%v", signature, err)
	} else if !ok {
		return
	}

	if p.sc.Config.DebugConf.DumpRawTx {
		p.dumpRawTx(signature, update)
	}

	rec := p.reconcileTx(update, signature)

	stored, err := p.sc.Ledger.StoreTransaction(rec)
	if err != nil {
		p.Errorf("交易落库失败: sig=%s, err=%v", signature, err)
		return
	}

	if stored && p.sc.Producer != nil {
		p.publishTransfers(rawSig, rec)
	}

	p.sc.Progress.MarkProcessed(p.ctx, signature)
}

// reconcileTx 从余额快照还原一笔交易的全部转账记录。
func (p *TxProcessor) reconcileTx(update *pb.SubscribeUpdateTransaction, signature string) *store.TxRecord {
	tx := update.Transaction
	meta := tx.Meta
	msg := tx.Transaction.Message

	universe := reconciler.BuildAccountUniverse(
		msg.AccountKeys,
		meta.LoadedWritableAddresses,
		meta.LoadedReadonlyAddresses,
	)

	timestamp := time.Now().Unix()

	nativeRecords := p.sc.Engine.ReconcileNative(universe, meta.PreBalances, meta.PostBalances, signature, timestamp)
	tokenRecords := p.sc.Engine.ReconcileToken(universe,
		toSnapshotEntries(meta.PreTokenBalances),
		toSnapshotEntries(meta.PostTokenBalances),
		signature, timestamp)

	return &store.TxRecord{
		Signature:       signature,
		Slot:            update.Slot,
		Timestamp:       timestamp,
		Success:         meta.Err == nil,
		NativeTransfers: store.ToStoredTransfers(nativeRecords),
		TokenTransfers:  store.ToStoredTransfers(tokenRecords),
		Addresses:       addrindex.ExtractAllAddresses(update),
	}
}

// toSnapshotEntries 把 pb 的代币余额列表转成还原引擎的快照条目。
func toSnapshotEntries(balances []*pb.TokenBalance) []reconciler.TokenSnapshotEntry {
	if len(balances) == 0 {
		return nil
	}
	entries := make([]reconciler.TokenSnapshotEntry, 0, len(balances))
	for _, tb := range balances {
		if tb == nil || tb.UiTokenAmount == nil {
			continue
		}
		entries = append(entries, reconciler.TokenSnapshotEntry{
			AccountIndex: tb.AccountIndex,
			Mint:         tb.Mint,
			Decimals:     uint8(tb.UiTokenAmount.Decimals),
			RawAmount:    tb.UiTokenAmount.Amount,
		})
	}
	return entries
}

func (p *TxProcessor) publishTransfers(rawSig []byte, rec *store.TxRecord) {
	kafkaConf := p.sc.Config.KafkaConf
	jobs, err := dispatcher.BuildTransferKafkaJobs(kafkaConf.Topic, uint32(kafkaConf.Partitions), rawSig, rec)
	if err != nil {
		p.Errorf("构造 Kafka 消息失败: sig=%s, err=%v", rec.Signature, err)
		return
	}
	if len(jobs) == 0 {
		return
	}

	okJobs, failed := mq.SendKafkaJobs(p.ctx, p.sc.Producer, jobs, kafkaConf.SendTimeout())
	if len(failed) > 0 {
		p.Slowf("Kafka 发送部分失败: sig=%s, ok=%d, failed=%d, firstErr=%v",
			rec.Signature, len(okJobs), len(failed), failed[0].Err)
	}
}

// dumpRawTx 把原始交易 pb 落盘，排障时离线重放用。
func (p *TxProcessor) dumpRawTx(signature string, update *pb.SubscribeUpdateTransaction) {
	dir := p.sc.Config.DebugConf.DumpDir
	if dir == "" {
		dir = "dump"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		p.Slowf("创建落盘目录失败: %v", err)
		return
	}

	data, err := proto.Marshal(update)
	if err != nil {
		p.Slowf("原始交易序列化失败: sig=%s, err=%v", signature, err)
		return
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.pb", signature))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		p.Slowf("原始交易落盘失败: sig=%s, err=%v", signature, err)
	}
}
