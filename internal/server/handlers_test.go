package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/rest/pathvar"

	"solana-transfer-ledger/internal/store"
	"solana-transfer-ledger/internal/svc"
)

func newTestContext(t *testing.T) *svc.ServiceContext {
	t.Helper()

	ledger, err := store.OpenLedger(store.LedgerOption{
		DBPath:          filepath.Join(t.TempDir(), "ledger"),
		SignaturePrefix: "sig:",
		AddressPrefix:   "addr:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ledger.Close() })

	stored, err := ledger.StoreTransaction(&store.TxRecord{
		Signature: "sig-1",
		Slot:      100,
		Timestamp: 1_700_000_000,
		Success:   true,
		NativeTransfers: []store.StoredTransfer{
			{From: "A", To: "B", Amount: 999_990_000},
		},
		Addresses: []string{"A", "B"},
	})
	require.NoError(t, err)
	require.True(t, stored)

	return &svc.ServiceContext{Ledger: ledger}
}

func doRequest(t *testing.T, handler http.HandlerFunc, target string, vars map[string]string) *ApiResponse {
	t.Helper()

	r := httptest.NewRequest(http.MethodGet, target, nil)
	if len(vars) > 0 {
		r = pathvar.WithVars(r, vars)
	}
	w := httptest.NewRecorder()
	handler(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp ApiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return &resp
}

func TestTransactionHandler(t *testing.T) {
	sc := newTestContext(t)

	resp := doRequest(t, transactionHandler(sc), "/api/v1/transaction/sig-1",
		map[string]string{"signature": "sig-1"})
	require.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var rec store.TxRecord
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, "sig-1", rec.Signature)
	assert.Equal(t, uint64(100), rec.Slot)
	require.Len(t, rec.NativeTransfers, 1)
	assert.Equal(t, uint64(999_990_000), rec.NativeTransfers[0].Amount)
}

func TestTransactionHandler_NotFound(t *testing.T) {
	sc := newTestContext(t)

	// 查无数据返回 200 + 空载荷，不是错误
	resp := doRequest(t, transactionHandler(sc), "/api/v1/transaction/sig-missing",
		map[string]string{"signature": "sig-missing"})
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Data)
	assert.Equal(t, "transaction not found", resp.Message)
}

func TestSignaturesHandler(t *testing.T) {
	sc := newTestContext(t)

	resp := doRequest(t, signaturesHandler(sc), "/api/v1/signatures?offset=0&limit=10", nil)
	require.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var out SignaturesResp
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, []string{"sig-1"}, out.Signatures)
	assert.Equal(t, 1, out.Count)
}

func TestAddressTransactionsHandler(t *testing.T) {
	sc := newTestContext(t)

	resp := doRequest(t, addressTransactionsHandler(sc), "/api/v1/address/A/transactions",
		map[string]string{"address": "A"})
	require.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var out AddressTransactionsResp
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "A", out.Address)
	require.Len(t, out.Records, 1)
	assert.Equal(t, store.RoleSender, out.Records[0].Role)
	assert.Equal(t, "B", out.Records[0].Counterparty)
}

func TestAddressStatsHandler(t *testing.T) {
	sc := newTestContext(t)

	resp := doRequest(t, addressStatsHandler(sc), "/api/v1/address/B/stats",
		map[string]string{"address": "B"})
	require.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var stats store.AddressStats
	require.NoError(t, json.Unmarshal(data, &stats))
	assert.Equal(t, 1, stats.NativeReceivedCount)
	assert.Equal(t, uint64(999_990_000), stats.TotalNativeReceived)

	// 未知地址同样是 200 + 提示
	resp = doRequest(t, addressStatsHandler(sc), "/api/v1/address/Z/stats",
		map[string]string{"address": "Z"})
	assert.True(t, resp.Success)
	assert.Equal(t, "address not found", resp.Message)
}

func TestStatsHandler(t *testing.T) {
	sc := newTestContext(t)

	resp := doRequest(t, statsHandler(sc), "/api/v1/stats", nil)
	require.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var stats store.LedgerStats
	require.NoError(t, json.Unmarshal(data, &stats))
	assert.Equal(t, 1, stats.SignatureCount)
	assert.Equal(t, 2, stats.AddressCount)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 100, clampLimit(0))
	assert.Equal(t, 50, clampLimit(50))
	assert.Equal(t, maxPageLimit, clampLimit(5000))
}
