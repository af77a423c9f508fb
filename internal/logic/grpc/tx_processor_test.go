package grpc

import (
	"testing"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/stretchr/testify/assert"

	"solana-transfer-ledger/internal/logic/reconciler"
	"solana-transfer-ledger/internal/svc"
)

func validTxInfo() *pb.SubscribeUpdateTransactionInfo {
	sig := make([]byte, 64)
	return &pb.SubscribeUpdateTransactionInfo{
		Transaction: &pb.Transaction{
			Signatures: [][]byte{sig},
			Message:    &pb.Message{},
		},
		Meta: &pb.TransactionStatusMeta{},
	}
}

func TestIsValidGrpcTx(t *testing.T) {
	assert.True(t, IsValidGrpcTx(validTxInfo()))

	assert.False(t, IsValidGrpcTx(nil), "nil 交易")

	tx := validTxInfo()
	tx.Transaction = nil
	assert.False(t, IsValidGrpcTx(tx), "缺少 Transaction")

	tx = validTxInfo()
	tx.Transaction.Message = nil
	assert.False(t, IsValidGrpcTx(tx), "缺少 Message")

	tx = validTxInfo()
	tx.Transaction.Signatures = nil
	assert.False(t, IsValidGrpcTx(tx), "缺少签名")

	tx = validTxInfo()
	tx.Transaction.Signatures = [][]byte{make([]byte, 32)}
	assert.False(t, IsValidGrpcTx(tx), "签名长度非法")

	tx = validTxInfo()
	tx.Meta = nil
	assert.False(t, IsValidGrpcTx(tx), "缺少 Meta")

	// 投票与失败交易结构上合法，是否处理由配置决定
	tx = validTxInfo()
	tx.IsVote = true
	assert.True(t, IsValidGrpcTx(tx))
}

func TestProcTx_NilUpdate(t *testing.T) {
	// 通道被关闭时竞态中的 worker 会收到 nil，处理必须安全跳过
	p := NewTxProcessor(&svc.ServiceContext{}, make(chan *pb.SubscribeUpdateTransaction, 1))
	assert.NotPanics(t, func() { p.procTx(nil) })
	assert.NotPanics(t, func() { p.procTx(&pb.SubscribeUpdateTransaction{}) })
}

func TestToSnapshotEntries(t *testing.T) {
	balances := []*pb.TokenBalance{
		nil,
		{AccountIndex: 2, Mint: "M1", UiTokenAmount: nil},
		{
			AccountIndex:  3,
			Mint:          "M2",
			UiTokenAmount: &pb.UiTokenAmount{Amount: "1000", Decimals: 6},
		},
	}

	entries := toSnapshotEntries(balances)
	assert.Equal(t, []reconciler.TokenSnapshotEntry{
		{AccountIndex: 3, Mint: "M2", Decimals: 6, RawAmount: "1000"},
	}, entries, "nil 条目与缺失金额应被跳过")

	assert.Nil(t, toSnapshotEntries(nil))
}
