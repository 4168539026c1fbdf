package handler

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"math"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blues/tss/internal/auth"
	"github.com/blues/tss/internal/logic"
	"github.com/blues/tss/internal/model"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type nopCustodian struct{}

func (nopCustodian) EscrowIn(context.Context, string, string, *big.Int) error  { return nil }
func (nopCustodian) EscrowOut(context.Context, string, string, *big.Int) error { return nil }
func (nopCustodian) TokenBalance(context.Context, string) (*big.Int, error) {
	return new(big.Int).SetUint64(math.MaxUint64), nil
}

type fakeClock struct {
	now uint64
}

func (f *fakeClock) Now() uint64 { return f.now }

type testServer struct {
	engine *gin.Engine
	clock  *fakeClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.StoreEntry{}, &model.PayoutRecord{}))

	clock := &fakeClock{now: 10}
	saleLogic := logic.NewSaleLogic(db, nopCustodian{}, clock)
	h := NewSaleHandler(saleLogic, auth.NewVerifier())

	r := gin.New()
	sale := r.Group("/api/v1/sale")
	sale.POST("/initialize", h.Initialize)
	sale.POST("/token", h.SetSaleToken)
	sale.POST("/payment-tokens", h.SetPaymentToken)
	sale.POST("/parameters", h.SetSaleParameters)
	sale.POST("/rates", h.SetSwapRate)
	sale.POST("/fund-recipient", h.SetFundRecipient)
	sale.POST("/contributions", h.Contribute)
	sale.POST("/claims", h.ClaimPurchasedTokens)
	sale.GET("/admin", h.GetAdmin)
	sale.GET("/total-sold", h.GetTotalSold)
	sale.GET("/phase", h.GetSalePhase)

	return &testServer{engine: r, clock: clock}
}

func newSigner(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key, crypto.PubkeyToAddress(key.PublicKey).Hex()
}

func signBody(t *testing.T, key *ecdsa.PrivateKey, body []byte) string {
	t.Helper()
	sig, err := crypto.Sign(accounts.TextHash(body), key)
	require.NoError(t, err)
	return hexutil.Encode(sig)
}

// post 发送JSON请求，key非空时附带请求体签名
func (ts *testServer) post(t *testing.T, path string, payload interface{}, key *ecdsa.PrivateKey) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != nil {
		req.Header.Set(HeaderSignature, signBody(t, key, body))
	}
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func (ts *testServer) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, data interface{}) {
	t.Helper()
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NoError(t, json.Unmarshal(resp.Data, data))
}

// configureSale 走完整的管理员配置流程
func configureSale(t *testing.T, ts *testServer, adminKey *ecdsa.PrivateKey, adminAddr string) {
	t.Helper()

	w := ts.post(t, "/api/v1/sale/initialize", InitializeRequest{Admin: adminAddr}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.post(t, "/api/v1/sale/token", SetSaleTokenRequest{TokenAddress: "0x5a1e"}, adminKey)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.post(t, "/api/v1/sale/fund-recipient", SetFundRecipientRequest{Recipient: "0xfd01"}, adminKey)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.post(t, "/api/v1/sale/payment-tokens", SetPaymentTokenRequest{PaymentToken: "0xaaa1"}, adminKey)
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.post(t, "/api/v1/sale/rates", SetSwapRateRequest{PaymentToken: "0xaaa1", Rate: 2}, adminKey)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.post(t, "/api/v1/sale/parameters", SetSaleParametersRequest{
		StartTime: 0,
		EndTime:   1000,
		SoftCap:   500,
		HardCap:   1000,
		MinBuy:    10,
		MaxBuy:    200,
		TgeTime:   1000,
	}, adminKey)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestInitializeEndpoint(t *testing.T) {
	ts := newTestServer(t)
	_, adminAddr := newSigner(t)

	w := ts.post(t, "/api/v1/sale/initialize", InitializeRequest{Admin: adminAddr}, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	// 重复初始化冲突
	w = ts.post(t, "/api/v1/sale/initialize", InitializeRequest{Admin: "0xother"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.get(t, "/api/v1/sale/admin")
	require.Equal(t, http.StatusOK, w.Code)
	var addr AddressResponse
	decodeData(t, w, &addr)
	assert.Equal(t, adminAddr, addr.Address)
}

func TestAdminEndpointsRejectNonAdminSignature(t *testing.T) {
	ts := newTestServer(t)
	_, adminAddr := newSigner(t)
	intruderKey, _ := newSigner(t)

	w := ts.post(t, "/api/v1/sale/initialize", InitializeRequest{Admin: adminAddr}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.post(t, "/api/v1/sale/token", SetSaleTokenRequest{TokenAddress: "0x5a1e"}, intruderKey)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 无签名同样拒绝
	w = ts.post(t, "/api/v1/sale/token", SetSaleTokenRequest{TokenAddress: "0x5a1e"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetAdminBeforeInitialize(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get(t, "/api/v1/sale/admin")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestContributeFlow(t *testing.T) {
	ts := newTestServer(t)
	adminKey, adminAddr := newSigner(t)
	participantKey, participantAddr := newSigner(t)
	configureSale(t, ts, adminKey, adminAddr)

	w := ts.post(t, "/api/v1/sale/contributions", ContributeRequest{
		Participant:  participantAddr,
		PaymentToken: "0xaaa1",
		Amount:       "50",
	}, participantKey)
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.get(t, "/api/v1/sale/total-sold")
	require.Equal(t, http.StatusOK, w.Code)
	var total AmountResponse
	decodeData(t, w, &total)
	assert.Equal(t, "100", total.Amount)

	w = ts.get(t, "/api/v1/sale/phase")
	require.Equal(t, http.StatusOK, w.Code)
	var phase PhaseResponse
	decodeData(t, w, &phase)
	assert.Equal(t, model.SalePhaseActive, phase.Phase)
}

func TestContributeRejectsForeignSignature(t *testing.T) {
	ts := newTestServer(t)
	adminKey, adminAddr := newSigner(t)
	_, participantAddr := newSigner(t)
	intruderKey, _ := newSigner(t)
	configureSale(t, ts, adminKey, adminAddr)

	// 用别人的签名替参与者出资
	w := ts.post(t, "/api/v1/sale/contributions", ContributeRequest{
		Participant:  participantAddr,
		PaymentToken: "0xaaa1",
		Amount:       "50",
	}, intruderKey)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestContributeValidationErrors(t *testing.T) {
	ts := newTestServer(t)
	adminKey, adminAddr := newSigner(t)
	participantKey, participantAddr := newSigner(t)
	configureSale(t, ts, adminKey, adminAddr)

	// 金额不是十进制整数
	w := ts.post(t, "/api/v1/sale/contributions", ContributeRequest{
		Participant:  participantAddr,
		PaymentToken: "0xaaa1",
		Amount:       "fifty",
	}, participantKey)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 售卖结束后出资冲突
	ts.clock.now = 1001
	w = ts.post(t, "/api/v1/sale/contributions", ContributeRequest{
		Participant:  participantAddr,
		PaymentToken: "0xaaa1",
		Amount:       "50",
	}, participantKey)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestClaimBeforeSuccessConflicts(t *testing.T) {
	ts := newTestServer(t)
	adminKey, adminAddr := newSigner(t)
	participantKey, participantAddr := newSigner(t)
	configureSale(t, ts, adminKey, adminAddr)

	ts.clock.now = 1001
	w := ts.post(t, "/api/v1/sale/claims", ClaimRequest{Participant: participantAddr}, participantKey)
	assert.Equal(t, http.StatusConflict, w.Code)
}
