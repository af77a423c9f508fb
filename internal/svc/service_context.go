package svc

import (
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/redis/go-redis/v9"

	"solana-transfer-ledger/internal/config"
	"solana-transfer-ledger/internal/logic/progress"
	"solana-transfer-ledger/internal/logic/reconciler"
	"solana-transfer-ledger/internal/mq"
	"solana-transfer-ledger/internal/store"
	"solana-transfer-ledger/pkg/logger"
)

// ServiceContext 持有账本服务的全部共享资源
type ServiceContext struct {
	Config   config.LedgerConfig
	Ledger   *store.Ledger
	Producer *kafka.Producer // Kafka 未配置时为 nil
	Progress *progress.Manager
	Engine   *reconciler.Engine
}

// NewServiceContext 创建账本服务上下文
func NewServiceContext(c config.LedgerConfig) (*ServiceContext, error) {
	// 1. 打开嵌入式账本存储
	ledger, err := store.OpenLedger(c.StorageConf.ToLedgerOption())
	if err != nil {
		logger.Errorf("账本存储初始化失败: %v", err)
		return nil, err
	}

	// 2. 初始化 Kafka 生产者（可选）
	var producer *kafka.Producer
	if c.KafkaConf.Enabled() {
		producer, err = mq.NewKafkaProducer(c.KafkaConf.ToKafkaOption())
		if err != nil {
			logger.Errorf("Kafka producer 初始化失败: %v", err)
			ledger.Close()
			return nil, err
		}
	} else {
		logger.Infof("未配置 Kafka brokers，事件发布已禁用")
	}

	// 3. 初始化签名判重（Redis 可选，缺省只靠账本判重）
	var redisStore *progress.RedisSignatureStore
	if c.ProgressConf.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.ProgressConf.RedisAddr,
			Password: c.ProgressConf.RedisPassword,
		})
		redisStore = progress.NewRedisSignatureStore(rdb, c.ProgressConf.SignatureTTL())
	}

	ctx := &ServiceContext{
		Config:   c,
		Ledger:   ledger,
		Producer: producer,
		Progress: progress.NewManager(redisStore, ledger),
		Engine:   reconciler.NewEngine(c.DebugConf.ToEngineDebug()),
	}

	logger.Infof("账本服务上下文初始化完成")
	return ctx, nil
}

// Close 关闭服务上下文中的资源
func (ctx *ServiceContext) Close() {
	if ctx.Producer != nil {
		ctx.Producer.Close()
	}
	if ctx.Ledger != nil {
		if err := ctx.Ledger.Close(); err != nil {
			logger.Errorf("账本存储关闭失败: %v", err)
		}
	}
}
