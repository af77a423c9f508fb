package config

import (
	"time"

	"solana-transfer-ledger/internal/logic/reconciler"
	"solana-transfer-ledger/internal/mq"
	"solana-transfer-ledger/internal/store"
	"solana-transfer-ledger/pkg/logger"
)

type LogConfig struct {
	Format   string `yaml:"format"`   // 日志格式，支持 "console" 或 "json"
	LogDir   string `yaml:"log_dir"`  // 日志目录（可为相对路径或绝对路径）
	Level    string `yaml:"level"`    // 日志级别：debug / info / warn / error
	Compress bool   `yaml:"compress"` // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// StorageConfig 表示嵌入式账本存储配置
type StorageConfig struct {
	DBPath            string `yaml:"db_path"`             // badger 数据目录
	SignaturePrefix   string `yaml:"signature_prefix"`    // 签名键前缀
	AddressPrefix     string `yaml:"address_prefix"`      // 地址键前缀
	MaxAddressRecords int    `yaml:"max_address_records"` // 单地址历史上限
}

func (c *StorageConfig) ToLedgerOption() store.LedgerOption {
	opt := store.LedgerOption{
		DBPath:            c.DBPath,
		SignaturePrefix:   c.SignaturePrefix,
		AddressPrefix:     c.AddressPrefix,
		MaxAddressRecords: c.MaxAddressRecords,
	}
	if opt.SignaturePrefix == "" {
		opt.SignaturePrefix = "sig:"
	}
	if opt.AddressPrefix == "" {
		opt.AddressPrefix = "addr:"
	}
	return opt
}

// KafkaConfig 表示 Kafka 生产者相关配置。Brokers 为空时禁用事件发布。
type KafkaConfig struct {
	Brokers   string `yaml:"brokers"`    // Kafka broker 地址，多个用英文逗号分隔
	BatchSize int    `yaml:"batch_size"` // 批处理大小（单位字节）
	LingerMs  int    `yaml:"linger_ms"`  // 批处理最大延迟（毫秒）

	Topic         string `yaml:"topic"`           // 转账事件 topic
	Partitions    int    `yaml:"partitions"`      // topic 分区数
	SendTimeoutMs int    `yaml:"send_timeout_ms"` // 单条事件发送并等待 ack 的超时（毫秒）
}

func (c *KafkaConfig) Enabled() bool {
	return c.Brokers != ""
}

func (c *KafkaConfig) ToKafkaOption() mq.KafkaProducerOption {
	return mq.KafkaProducerOption{
		Brokers:    c.Brokers,
		BatchSize:  c.BatchSize,
		LingerMs:   c.LingerMs,
		Topic:      c.Topic,
		Partitions: c.Partitions,
	}
}

func (c *KafkaConfig) SendTimeout() time.Duration {
	if c.SendTimeoutMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.SendTimeoutMs) * time.Millisecond
}

// MonitorConfig 表示交易过滤配置
type MonitorConfig struct {
	IncludeFailedTransactions bool `yaml:"include_failed_transactions"` // 是否处理失败交易
	IncludeVoteTransactions   bool `yaml:"include_vote_transactions"`   // 是否处理投票交易
	Workers                   int  `yaml:"workers"`                     // 处理协程数，<=0 时取 CPU 核数
}

// ProgressConfig 表示签名幂等判重配置
type ProgressConfig struct {
	RedisAddr        string `yaml:"redis_addr"`         // Redis 地址，为空时仅依赖账本判重
	RedisPassword    string `yaml:"redis_password"`     // Redis 密码
	SignatureTTLHour int    `yaml:"signature_ttl_hour"` // 签名标记的 TTL（小时）
}

func (c *ProgressConfig) SignatureTTL() time.Duration {
	return time.Duration(c.SignatureTTLHour) * time.Hour
}

// ApiConfig 表示查询服务配置
type ApiConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DebugConfig 控制还原引擎的逐笔调试输出
type DebugConfig struct {
	Enabled   bool   `yaml:"enabled"`     // 引擎调试日志开关
	DumpRawTx bool   `yaml:"dump_raw_tx"` // 是否把原始交易 pb 落盘（排障用）
	DumpDir   string `yaml:"dump_dir"`    // 原始交易落盘目录
}

func (c *DebugConfig) ToEngineDebug() reconciler.DebugConfig {
	return reconciler.DebugConfig{Enabled: c.Enabled}
}

// SlotCheckConfig 表示 slot 落后监控配置
type SlotCheckConfig struct {
	RpcEndpoint      string `yaml:"rpc_endpoint"`       // Solana RPC 地址
	CheckIntervalSec int    `yaml:"check_interval_sec"` // 检查间隔（秒）
	MaxLagSlots      uint64 `yaml:"max_lag_slots"`      // 落后多少 slot 触发告警
}

// LedgerConfig 是主配置结构体，驱动整个转账账本服务
type LedgerConfig struct {
	LogConf      LogConfig       `yaml:"logger"`     // 日志配置
	StorageConf  StorageConfig   `yaml:"storage"`    // 账本存储配置
	KafkaConf    KafkaConfig     `yaml:"kafka"`      // Kafka 生产者配置（可选）
	MonitorConf  MonitorConfig   `yaml:"monitor"`    // 交易过滤配置
	ProgressConf ProgressConfig  `yaml:"progress"`   // 幂等判重配置
	ApiConf      ApiConfig       `yaml:"api"`        // 查询服务配置
	DebugConf    DebugConfig     `yaml:"debug"`      // 调试配置
	SlotCheck    SlotCheckConfig `yaml:"slot_check"` // slot 落后监控

	// gRPC 客户端连接相关配置
	Grpc struct {
		Endpoint string `yaml:"endpoint"` // gRPC 服务端地址
		XToken   string `yaml:"x_token"`  // x-token 认证

		// 应用级逻辑心跳（ping）配置
		StreamPingIntervalSec int `yaml:"stream_ping_interval_sec"` // 应用层 ping 心跳间隔（秒）

		// gRPC Keepalive 底层连接检测配置
		KeepalivePingIntervalSec int `yaml:"keepalive_ping_interval_sec"` // 底层 keepalive 间隔（秒）
		KeepalivePingTimeoutSec  int `yaml:"keepalive_ping_timeout_sec"`  // 底层 keepalive 超时（秒）

		// gRPC 窗口大小调优（用于大数据流推送）
		InitialWindowSize     int `yaml:"initial_window_size"`      // 单流窗口大小（字节）
		InitialConnWindowSize int `yaml:"initial_conn_window_size"` // 整体连接窗口大小（字节）

		// 消息体大小限制
		MaxCallSendMsgSize int `yaml:"max_call_send_msg_size"` // 单条消息最大发送字节数
		MaxCallRecvMsgSize int `yaml:"max_call_recv_msg_size"` // 单条消息最大接收字节数

		// 超时与重连策略
		ReconnectIntervalSec int `yaml:"reconnect_interval_sec"` // 重连最小间隔（秒）
		ConnectTimeoutSec    int `yaml:"connect_timeout_sec"`    // 连接建立超时（秒）
		SendTimeoutSec       int `yaml:"send_timeout_sec"`       // 发送超时（秒）
		RecvTimeoutSec       int `yaml:"recv_timeout_sec"`       // 接收超时（秒）
	} `yaml:"grpc"`
}
