package grpc

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"

	"solana-transfer-ledger/internal/svc"
	"solana-transfer-ledger/pkg/logger"
)

type GrpcStreamManager struct {
	mu                    sync.Mutex                          // 互斥锁，保护并发安全
	conn                  *grpc.ClientConn                    // gRPC 连接对象
	client                pb.GeyserClient                     // gRPC 客户端
	stream                pb.Geyser_SubscribeClient           // gRPC 订阅流
	stopped               bool                                // 标记是否已经停止
	reconnectAttempts     int                                 // 已重连次数
	reconnectInterval     time.Duration                       // 重连基础间隔
	xToken                string                              // 认证用的 x-token
	streamPingIntervalSec int                                 // Stream心跳包发送间隔（秒）
	includeFailed         bool                                // 是否订阅失败交易
	includeVote           bool                                // 是否订阅投票交易
	txChan                chan *pb.SubscribeUpdateTransaction // 交易数据通道
	connCtx               context.Context                     // 当前连接的 context
	connCancel            context.CancelFunc                  // 当前连接的 cancel 函数
	recvTimeoutSec        int                                 // 多久没收到任何更新就触发重连（秒）
	sendTimeoutSec        int                                 // gRPC发送超时时间（秒）
	lastSlot              atomic.Uint64                       // 最近一次收到的 slot
}

func NewGrpcStreamManager(sc *svc.ServiceContext, txChan chan *pb.SubscribeUpdateTransaction) (*GrpcStreamManager, error) {
	grpcConf := sc.Config.Grpc

	configTls := &tls.Config{
		InsecureSkipVerify: true,
	}

	dialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(grpcConf.ConnectTimeoutSec)*time.Second)
	defer cancel()

	conn, err := grpc.DialContext(
		dialCtx,
		grpcConf.Endpoint,
		grpc.WithTransportCredentials(credentials.NewTLS(configTls)),
		grpc.WithInitialWindowSize(int32(grpcConf.InitialWindowSize)),
		grpc.WithInitialConnWindowSize(int32(grpcConf.InitialConnWindowSize)),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallSendMsgSize(grpcConf.MaxCallSendMsgSize),
			grpc.MaxCallRecvMsgSize(grpcConf.MaxCallRecvMsgSize),
		),
		grpc.WithBlock(),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                time.Duration(grpcConf.KeepalivePingIntervalSec) * time.Second,
			Timeout:             time.Duration(grpcConf.KeepalivePingTimeoutSec) * time.Second,
			PermitWithoutStream: true,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %v", err)
	}

	return &GrpcStreamManager{
		conn:                  conn,
		client:                pb.NewGeyserClient(conn),
		reconnectAttempts:     0,
		reconnectInterval:     time.Duration(grpcConf.ReconnectIntervalSec) * time.Second,
		xToken:                grpcConf.XToken,
		streamPingIntervalSec: grpcConf.StreamPingIntervalSec,
		includeFailed:         sc.Config.MonitorConf.IncludeFailedTransactions,
		includeVote:           sc.Config.MonitorConf.IncludeVoteTransactions,
		txChan:                txChan,
		recvTimeoutSec:        grpcConf.RecvTimeoutSec,
		sendTimeoutSec:        grpcConf.SendTimeoutSec,
	}, nil
}

func (m *GrpcStreamManager) Start() {
	m.mustConnect()
}

func (m *GrpcStreamManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopped = true // 标记已停止
	if m.connCancel != nil {
		m.connCancel()
		m.connCancel = nil
	}
	if m.conn != nil {
		err := m.conn.Close()
		_ = err
	}
}

// LastSlot 返回订阅流最近观察到的 slot，未收到任何更新时为 0。
func (m *GrpcStreamManager) LastSlot() uint64 {
	return m.lastSlot.Load()
}

// 内部循环直到连接成功
func (m *GrpcStreamManager) mustConnect() {
	for {
		m.mu.Lock()
		if m.stopped {
			m.mu.Unlock()
			return
		}
		m.mu.Unlock()

		if m.reconnectAttempts > 0 {
			if m.reconnectAttempts > 3 {
				time.Sleep(m.reconnectInterval * 2)
			} else {
				time.Sleep(m.reconnectInterval)
			}
		}
		logger.Infof("Connecting... Attempt %d", m.reconnectAttempts+1)
		m.reconnectAttempts++
		err := m.connect()
		if err == nil {
			return // 连接成功
		}
		logger.Warnf("Connect failed: %v, will retry...", err)
	}
}

func (m *GrpcStreamManager) buildSubscribeRequest() *pb.SubscribeRequest {
	txs := make(map[string]*pb.SubscribeRequestFilterTransactions)
	txs["transactions"] = &pb.SubscribeRequestFilterTransactions{
		Vote:   boolPtr(m.includeVote),
		Failed: boolPtr(m.includeFailed),
	}
	// slot 订阅仅用于落后监控，不参与业务处理
	slots := make(map[string]*pb.SubscribeRequestFilterSlots)
	slots["slots"] = &pb.SubscribeRequestFilterSlots{
		FilterByCommitment: boolPtr(true),
	}
	commitment := pb.CommitmentLevel_CONFIRMED
	return &pb.SubscribeRequest{
		Transactions: txs,
		Slots:        slots,
		Commitment:   &commitment,
	}
}

// connect 只尝试一次连接
func (m *GrpcStreamManager) connect() error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return errors.New("manager is stopped")
	}
	defer m.mu.Unlock()

	// 先关闭旧的 context，优雅退出旧 goroutine
	if m.connCancel != nil {
		m.connCancel()
		m.connCancel = nil
	}
	m.connCtx, m.connCancel = context.WithCancel(context.Background())

	logger.Infof("Attempting to connect...")

	metaCtx := metadata.NewOutgoingContext(
		m.connCtx,
		metadata.New(map[string]string{"x-token": m.xToken}),
	)
	stream, err := m.client.Subscribe(metaCtx)
	if err != nil {
		logger.Warnf("Failed to subscribe: %v", err)
		return err // 只返回错误
	}

	req := m.buildSubscribeRequest()
	err = sendWithTimeout(m.connCtx, stream.Send, req, time.Duration(m.sendTimeoutSec)*time.Second)
	if err != nil {
		logger.Warnf("Failed to send request: %v", err)
		return err // 只返回错误
	}

	m.stream = stream
	m.reconnectAttempts = 0
	logger.Infof("Connection established")

	// 启动 ping 协程
	go m.pingLoop(m.connCtx)
	// 启动交易监听协程
	go m.txRecvLoop(m.connCtx)

	return nil
}

func (m *GrpcStreamManager) txRecvLoop(ctx context.Context) {
	last := time.Now()
	recvTimeout := time.Duration(m.recvTimeoutSec) * time.Second
	for {
		select {
		case <-ctx.Done():
			return // 优雅退出
		default:
			update, err := m.stream.Recv()
			now := time.Now()
			if err != nil {
				if errors.Is(err, io.EOF) {
					logger.Warnf("Stream closed by server (EOF), will reconnect")
					m.reconnect()
					return
				}

				logger.Warnf("Stream error: %v", err)
				if m.reconnectIfRecvTimeout(last, recvTimeout) {
					return
				}
				time.Sleep(100 * time.Millisecond)
				continue
			}

			switch u := update.GetUpdateOneof().(type) {
			case *pb.SubscribeUpdate_Transaction:
				m.lastSlot.Store(u.Transaction.Slot)
				select {
				case m.txChan <- u.Transaction:
				case <-ctx.Done():
					return
				}
				last = now
			case *pb.SubscribeUpdate_Slot:
				m.lastSlot.Store(u.Slot.Slot)
				last = now
			case *pb.SubscribeUpdate_Pong:
				last = now
			}
		}

		if m.reconnectIfRecvTimeout(last, recvTimeout) {
			return
		}
	}
}

// 带超时的 Send
func sendWithTimeout[T any](ctx context.Context, sendFunc func(T) error, req T, timeout time.Duration) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- sendFunc(req)
	}()

	select {
	case <-timeoutCtx.Done():
		return timeoutCtx.Err()
	case err := <-done:
		return err
	}
}

// 心跳检测
func (m *GrpcStreamManager) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(m.streamPingIntervalSec) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return // 优雅退出
		case <-ticker.C:
			pingReq := &pb.SubscribeRequest{
				Ping: &pb.SubscribeRequestPing{Id: 1},
			}
			err := sendWithTimeout(ctx, m.stream.Send, pingReq, time.Duration(m.sendTimeoutSec)*time.Second)
			if err != nil {
				logger.Warnf("Ping failed: %v", err)
				// 这里只记录日志，不触发重连
			}
		}
	}
}

func (m *GrpcStreamManager) reconnectIfRecvTimeout(last time.Time, timeout time.Duration) bool {
	if time.Since(last) > timeout {
		logger.Warnf("%v未收到任何订阅更新，触发重连", timeout)
		m.reconnect()
		return true
	}
	return false
}

func (m *GrpcStreamManager) reconnect() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	if m.connCancel != nil {
		m.connCancel() // 关闭所有相关 goroutine
		m.connCancel = nil
	}
	m.mu.Unlock()

	go m.mustConnect()
}

func boolPtr(b bool) *bool {
	return &b
}
