// Package server 提供账本的只读查询 HTTP 服务。
package server

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"solana-transfer-ledger/internal/svc"
)

// NewRestServer 按配置构建查询服务并注册全部路由。
func NewRestServer(sc *svc.ServiceContext) *rest.Server {
	srv := rest.MustNewServer(rest.RestConf{
		Host: sc.Config.ApiConf.Host,
		Port: sc.Config.ApiConf.Port,
	})
	registerRoutes(srv, sc)
	return srv
}

func registerRoutes(srv *rest.Server, sc *svc.ServiceContext) {
	srv.AddRoutes([]rest.Route{
		{
			Method:  http.MethodGet,
			Path:    "/api/v1/health",
			Handler: healthHandler(sc),
		},
		{
			Method:  http.MethodGet,
			Path:    "/api/v1/transaction/:signature",
			Handler: transactionHandler(sc),
		},
		{
			Method:  http.MethodGet,
			Path:    "/api/v1/signatures",
			Handler: signaturesHandler(sc),
		},
		{
			Method:  http.MethodGet,
			Path:    "/api/v1/addresses",
			Handler: addressesHandler(sc),
		},
		{
			Method:  http.MethodGet,
			Path:    "/api/v1/address/:address/transactions",
			Handler: addressTransactionsHandler(sc),
		},
		{
			Method:  http.MethodGet,
			Path:    "/api/v1/address/:address/stats",
			Handler: addressStatsHandler(sc),
		},
		{
			Method:  http.MethodGet,
			Path:    "/api/v1/stats",
			Handler: statsHandler(sc),
		},
	})
}
