package main

import (
	"flag"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/zeromicro/go-zero/core/conf"
	zerosvc "github.com/zeromicro/go-zero/core/service"

	"solana-transfer-ledger/internal/config"
	"solana-transfer-ledger/internal/logic/grpc"
	"solana-transfer-ledger/internal/server"
	"solana-transfer-ledger/internal/svc"
	"solana-transfer-ledger/pkg/logger"
)

var configFile = flag.String("f", "etc/ledger.yaml", "the config file")

func main() {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
		}
	}()

	flag.Parse()

	var c config.LedgerConfig
	conf.MustLoad(*configFile, &c)

	if err := logger.Init(c.LogConf.ToLogOption()); err != nil {
		panic(err)
	}
	defer logger.Sync()

	serviceContext, err := svc.NewServiceContext(c)
	if err != nil {
		panic(err)
	}
	defer serviceContext.Close()

	sg := zerosvc.NewServiceGroup()

	// 不主动 close：worker 通过 ctx 退出，close 会让竞态中的接收方读到 nil
	txChan := make(chan *pb.SubscribeUpdateTransaction, 2000)

	streamService, err := grpc.NewGrpcStreamManager(serviceContext, txChan)
	if err != nil {
		panic(err)
	}
	sg.Add(streamService)
	sg.Add(grpc.NewTxProcessor(serviceContext, txChan))

	if c.SlotCheck.RpcEndpoint != "" {
		sg.Add(grpc.NewSlotChecker(c.SlotCheck, streamService.LastSlot))
	}

	if c.ApiConf.Port > 0 {
		sg.Add(server.NewRestServer(serviceContext))
	}

	logger.Infof("Starting transfer ledger services")

	// 启动服务
	sg.Start()

	// 等待退出信号
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Infof("Shutting down services...")
	sg.Stop()
}
