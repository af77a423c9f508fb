// Package addrindex 负责从交易中提取参与地址，供地址维度的索引使用。
// 提取范围独立于转账还原：即使一笔交易没有还原出任何转账，
// 它触达的地址也会被记录。
package addrindex

import (
	"github.com/mr-tron/base58"
	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"

	"solana-transfer-ledger/pkg/types"
)

// systemProgramAddr token 余额条目中 mint/owner 的无效占位值（全零公钥），不计入提取结果。
var systemProgramAddr = types.Pubkey{}.String()

// ExtractAllAddresses 提取交易触达的全部地址（base58），去重后按首次出现顺序返回。
// 覆盖：主账户、地址表账户、lookup 加载的 writable/readonly 地址、
// 代币余额中的 mint 与 owner、奖励接收者、return data 的 program id。
func ExtractAllAddresses(update *pb.SubscribeUpdateTransaction) []string {
	if update == nil || update.Transaction == nil {
		return nil
	}
	txInfo := update.Transaction

	seen := make(map[string]bool, 32)
	var addresses []string
	add := func(addr string) {
		if addr == "" || seen[addr] {
			return
		}
		seen[addr] = true
		addresses = append(addresses, addr)
	}
	addBytes := func(b []byte) {
		if len(b) > 0 {
			add(base58.Encode(b))
		}
	}

	if tx := txInfo.Transaction; tx != nil && tx.Message != nil {
		for _, key := range tx.Message.AccountKeys {
			addBytes(key)
		}
		// 地址表本身的账户地址
		for _, lookup := range tx.Message.AddressTableLookups {
			addBytes(lookup.AccountKey)
		}
	}

	meta := txInfo.Meta
	if meta == nil {
		return addresses
	}

	for _, b := range meta.LoadedWritableAddresses {
		addBytes(b)
	}
	for _, b := range meta.LoadedReadonlyAddresses {
		addBytes(b)
	}

	// 代币余额中的 mint 与 owner，过滤系统程序占位值
	for _, tb := range meta.PreTokenBalances {
		addTokenBalanceAddrs(add, tb)
	}
	for _, tb := range meta.PostTokenBalances {
		addTokenBalanceAddrs(add, tb)
	}

	for _, reward := range meta.Rewards {
		add(reward.Pubkey)
	}

	if meta.ReturnData != nil {
		addBytes(meta.ReturnData.ProgramId)
	}

	return addresses
}

func addTokenBalanceAddrs(add func(string), tb *pb.TokenBalance) {
	if tb == nil {
		return
	}
	if tb.Mint != "" && tb.Mint != systemProgramAddr {
		add(tb.Mint)
	}
	if tb.Owner != "" && tb.Owner != systemProgramAddr {
		add(tb.Owner)
	}
}
