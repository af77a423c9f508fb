package store

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/dgraph-io/badger/v2/options"

	"solana-transfer-ledger/pkg/logger"
)

const (
	kvGcDiscardRatio = 0.5 // 采样中可回收比例达到 50% 才执行 GC
	kvGcInterval     = 10 * time.Minute
)

// KVStore 基于 badger 的嵌入式 KV 封装，承担交易账本的底层存储。
// 值统一为调用方编码好的字节串，键约定为 "<prefix><主键>"。
type KVStore struct {
	db     *badger.DB
	ctx    context.Context
	cancel context.CancelFunc
}

// OpenKV 打开（或创建）位于 dir 的数据库，并启动后台 value log GC。
func OpenKV(dir string) (*KVStore, error) {
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return nil, fmt.Errorf("创建数据库目录失败: %w", err)
	}

	opts := badger.DefaultOptions(dir)
	// 低吞吐场景下压低内存占用与 value log 体积
	opts.ValueLogLoadingMode = options.FileIO
	opts.TableLoadingMode = options.FileIO
	opts.ValueThreshold = 1024
	opts.ValueLogFileSize = 1<<26 - 1 // 64MB
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("打开 badger 数据库失败: %w", err)
	}
	logger.Infof("[store] badger 数据库已打开: %s", dir)

	ctx, cancel := context.WithCancel(context.Background())
	kv := &KVStore{db: db, ctx: ctx, cancel: cancel}
	go kv.runGC()
	return kv, nil
}

func (s *KVStore) runGC() {
	ticker := time.NewTicker(kvGcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.db.RunValueLogGC(kvGcDiscardRatio); err != nil && err != badger.ErrNoRewrite {
				logger.Warnf("[store] badger GC 失败: %v", err)
			}
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *KVStore) Close() error {
	s.cancel()
	return s.db.Close()
}

func (s *KVStore) Put(key, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// Get 返回 key 对应的值拷贝；键不存在时返回 (nil, false, nil)。
func (s *KVStore) Get(key []byte) ([]byte, bool, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *KVStore) Has(key []byte) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *KVStore) Delete(key []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// KeysByPrefix 返回指定前缀下的全部主键（去掉前缀后的部分），按键序排列。
// limit < 0 表示不限制；offset 用于分页跳过。
func (s *KVStore) KeysByPrefix(prefix []byte, offset, limit int) ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		skipped := 0
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if skipped < offset {
				skipped++
				continue
			}
			if limit >= 0 && len(keys) >= limit {
				break
			}
			key := it.Item().KeyCopy(nil)
			keys = append(keys, string(bytes.TrimPrefix(key, prefix)))
		}
		return nil
	})
	return keys, err
}

// CountByPrefix 统计指定前缀下的键数量。
func (s *KVStore) CountByPrefix(prefix []byte) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}
