package server

import "solana-transfer-ledger/internal/store"

// ApiResponse 是所有查询接口的统一外层结构。
// 查无数据不是错误：Success 仍为 true，Data 为空并附带提示。
type ApiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type TransactionReq struct {
	Signature string `path:"signature"`
}

type SignaturesReq struct {
	Offset int `form:"offset,default=0"`
	Limit  int `form:"limit,default=100"`
}

type AddressesReq struct {
	Offset int `form:"offset,default=0"`
	Limit  int `form:"limit,default=100"`
}

type AddressTransactionsReq struct {
	Address string `path:"address"`
	Offset  int    `form:"offset,default=0"`
	Limit   int    `form:"limit,default=100"`
}

type AddressStatsReq struct {
	Address string `path:"address"`
}

type SignaturesResp struct {
	Signatures []string `json:"signatures"`
	Count      int      `json:"count"`
}

type AddressesResp struct {
	Addresses []string `json:"addresses"`
	Count     int      `json:"count"`
}

type AddressTransactionsResp struct {
	Address string                `json:"address"`
	Records []store.AddressRecord `json:"records"`
	Count   int                   `json:"count"`
}
