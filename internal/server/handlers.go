package server

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"solana-transfer-ledger/internal/svc"
)

const maxPageLimit = 1000

func clampLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}

func okJson(w http.ResponseWriter, r *http.Request, data any) {
	httpx.OkJsonCtx(r.Context(), w, &ApiResponse{Success: true, Data: data})
}

func emptyJson(w http.ResponseWriter, r *http.Request, message string) {
	httpx.OkJsonCtx(r.Context(), w, &ApiResponse{Success: true, Message: message})
}

func errorJson(w http.ResponseWriter, r *http.Request, err error) {
	httpx.WriteJsonCtx(r.Context(), w, http.StatusInternalServerError,
		&ApiResponse{Success: false, Message: err.Error()})
}

func badRequestJson(w http.ResponseWriter, r *http.Request, err error) {
	httpx.WriteJsonCtx(r.Context(), w, http.StatusBadRequest,
		&ApiResponse{Success: false, Message: err.Error()})
}

func healthHandler(sc *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		okJson(w, r, map[string]string{"status": "ok"})
	}
}

// GET /api/transaction/:signature
func transactionHandler(sc *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TransactionReq
		if err := httpx.Parse(r, &req); err != nil {
			badRequestJson(w, r, err)
			return
		}

		rec, err := sc.Ledger.Signatures.Get(req.Signature)
		if err != nil {
			errorJson(w, r, err)
			return
		}
		if rec == nil {
			emptyJson(w, r, "transaction not found")
			return
		}
		okJson(w, r, rec)
	}
}

// GET /api/signatures?offset=&limit=
func signaturesHandler(sc *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignaturesReq
		if err := httpx.Parse(r, &req); err != nil {
			badRequestJson(w, r, err)
			return
		}

		sigs, err := sc.Ledger.Signatures.Signatures(req.Offset, clampLimit(req.Limit))
		if err != nil {
			errorJson(w, r, err)
			return
		}
		okJson(w, r, &SignaturesResp{Signatures: sigs, Count: len(sigs)})
	}
}

// GET /api/addresses?offset=&limit=
func addressesHandler(sc *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddressesReq
		if err := httpx.Parse(r, &req); err != nil {
			badRequestJson(w, r, err)
			return
		}

		addrs, err := sc.Ledger.Addresses.Addresses(req.Offset, clampLimit(req.Limit))
		if err != nil {
			errorJson(w, r, err)
			return
		}
		okJson(w, r, &AddressesResp{Addresses: addrs, Count: len(addrs)})
	}
}

// GET /api/address/:address/transactions?limit=
func addressTransactionsHandler(sc *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddressTransactionsReq
		if err := httpx.Parse(r, &req); err != nil {
			badRequestJson(w, r, err)
			return
		}

		records, err := sc.Ledger.Addresses.RecentRecords(req.Address, req.Offset, clampLimit(req.Limit))
		if err != nil {
			errorJson(w, r, err)
			return
		}
		if records == nil {
			emptyJson(w, r, "address not found")
			return
		}
		okJson(w, r, &AddressTransactionsResp{
			Address: req.Address,
			Records: records,
			Count:   len(records),
		})
	}
}

// GET /api/address/:address/stats
func addressStatsHandler(sc *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddressStatsReq
		if err := httpx.Parse(r, &req); err != nil {
			badRequestJson(w, r, err)
			return
		}

		stats, err := sc.Ledger.Addresses.Stats(req.Address)
		if err != nil {
			errorJson(w, r, err)
			return
		}
		if stats.TotalRecords == 0 {
			emptyJson(w, r, "address not found")
			return
		}
		okJson(w, r, stats)
	}
}

// GET /api/stats
func statsHandler(sc *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := sc.Ledger.Stats()
		if err != nil {
			errorJson(w, r, err)
			return
		}
		okJson(w, r, stats)
	}
}
