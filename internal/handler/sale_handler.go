package handler

import (
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/blues/tss/internal/auth"
	"github.com/blues/tss/internal/logic"
	"github.com/blues/tss/internal/model"
	"github.com/gin-gonic/gin"
)

// HeaderSignature 请求体签名头
const HeaderSignature = "X-Signature"

// SaleHandler 售卖操作处理器
type SaleHandler struct {
	saleLogic *logic.SaleLogic
	verifier  *auth.Verifier
}

// NewSaleHandler 创建售卖操作处理器
func NewSaleHandler(saleLogic *logic.SaleLogic, verifier *auth.Verifier) *SaleHandler {
	return &SaleHandler{
		saleLogic: saleLogic,
		verifier:  verifier,
	}
}

// signedBody 读取原始请求体并反序列化
// 状态变更操作的签名校验必须针对原始字节，不能先绑定再重排
func signedBody(c *gin.Context, req interface{}) ([]byte, bool) {
	body, err := c.GetRawData()
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无法读取请求体")
		return nil, false
	}
	if err := json.Unmarshal(body, req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求体不是合法JSON")
		return nil, false
	}
	return body, true
}

// requireAdmin 校验请求体由管理员签名
func (h *SaleHandler) requireAdmin(c *gin.Context, body []byte) bool {
	admin, err := h.saleLogic.GetAdmin(c.Request.Context())
	if err != nil {
		AbortResponse(c, err)
		return false
	}
	if err := h.verifier.Require(admin, body, c.GetHeader(HeaderSignature)); err != nil {
		AbortResponse(c, err)
		return false
	}
	return true
}

// Initialize 初始化管理员，只允许一次，无需签名
func (h *SaleHandler) Initialize(c *gin.Context) {
	var req InitializeRequest
	if _, ok := signedBody(c, &req); !ok {
		return
	}
	if req.Admin == "" {
		ErrorResponse(c, http.StatusBadRequest, "管理员地址不能为空")
		return
	}

	if err := h.saleLogic.Initialize(c.Request.Context(), req.Admin); err != nil {
		AbortResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "管理员初始化成功", AddressResponse{Address: req.Admin})
}

// SetSaleToken 设置被售卖代币
func (h *SaleHandler) SetSaleToken(c *gin.Context) {
	var req SetSaleTokenRequest
	body, ok := signedBody(c, &req)
	if !ok {
		return
	}
	if req.TokenAddress == "" {
		ErrorResponse(c, http.StatusBadRequest, "代币地址不能为空")
		return
	}
	if !h.requireAdmin(c, body) {
		return
	}

	if err := h.saleLogic.SetSaleToken(c.Request.Context(), req.TokenAddress); err != nil {
		AbortResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "售卖代币设置成功", AddressResponse{Address: req.TokenAddress})
}

// SetPaymentToken 登记支付代币
func (h *SaleHandler) SetPaymentToken(c *gin.Context) {
	var req SetPaymentTokenRequest
	body, ok := signedBody(c, &req)
	if !ok {
		return
	}
	if req.PaymentToken == "" {
		ErrorResponse(c, http.StatusBadRequest, "支付代币地址不能为空")
		return
	}
	if !h.requireAdmin(c, body) {
		return
	}

	if err := h.saleLogic.SetPaymentToken(c.Request.Context(), req.PaymentToken); err != nil {
		AbortResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "支付代币登记成功", AddressResponse{Address: req.PaymentToken})
}

// SetSaleParameters 设置售卖参数
func (h *SaleHandler) SetSaleParameters(c *gin.Context) {
	var req SetSaleParametersRequest
	body, ok := signedBody(c, &req)
	if !ok {
		return
	}
	if !h.requireAdmin(c, body) {
		return
	}

	params := toSaleParameters(req)
	if err := h.saleLogic.SetSaleParameters(c.Request.Context(), params); err != nil {
		AbortResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "售卖参数设置成功", SaleParametersResponse{Parameters: params})
}

// SetSwapRate 设置支付代币兑换率
func (h *SaleHandler) SetSwapRate(c *gin.Context) {
	var req SetSwapRateRequest
	body, ok := signedBody(c, &req)
	if !ok {
		return
	}
	if req.PaymentToken == "" {
		ErrorResponse(c, http.StatusBadRequest, "支付代币地址不能为空")
		return
	}
	if !h.requireAdmin(c, body) {
		return
	}

	if err := h.saleLogic.SetSwapRate(c.Request.Context(), req.PaymentToken, req.Rate); err != nil {
		AbortResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "兑换率设置成功", RateResponse{PaymentToken: req.PaymentToken, Rate: req.Rate})
}

// SetFundRecipient 设置资金接收地址
func (h *SaleHandler) SetFundRecipient(c *gin.Context) {
	var req SetFundRecipientRequest
	body, ok := signedBody(c, &req)
	if !ok {
		return
	}
	if req.Recipient == "" {
		ErrorResponse(c, http.StatusBadRequest, "接收地址不能为空")
		return
	}
	if !h.requireAdmin(c, body) {
		return
	}

	if err := h.saleLogic.SetFundRecipient(c.Request.Context(), req.Recipient); err != nil {
		AbortResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "资金接收地址设置成功", AddressResponse{Address: req.Recipient})
}

// Contribute 参与者出资
func (h *SaleHandler) Contribute(c *gin.Context) {
	var req ContributeRequest
	body, ok := signedBody(c, &req)
	if !ok {
		return
	}
	if req.Participant == "" || req.PaymentToken == "" {
		ErrorResponse(c, http.StatusBadRequest, "参与者和支付代币地址不能为空")
		return
	}
	if err := h.verifier.Require(req.Participant, body, c.GetHeader(HeaderSignature)); err != nil {
		AbortResponse(c, err)
		return
	}

	amount, valid := new(big.Int).SetString(req.Amount, 10)
	if !valid {
		ErrorResponse(c, http.StatusBadRequest, "金额必须是十进制整数")
		return
	}

	if err := h.saleLogic.Contribute(c.Request.Context(), req.Participant, req.PaymentToken, amount); err != nil {
		AbortResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "出资成功", AmountResponse{Amount: amount.String()})
}

// ClaimPurchasedTokens 领取已购代币
func (h *SaleHandler) ClaimPurchasedTokens(c *gin.Context) {
	var req ClaimRequest
	body, ok := signedBody(c, &req)
	if !ok {
		return
	}
	if req.Participant == "" {
		ErrorResponse(c, http.StatusBadRequest, "参与者地址不能为空")
		return
	}
	if err := h.verifier.Require(req.Participant, body, c.GetHeader(HeaderSignature)); err != nil {
		AbortResponse(c, err)
		return
	}

	if err := h.saleLogic.ClaimPurchasedTokens(c.Request.Context(), req.Participant); err != nil {
		AbortResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "代币领取成功", nil)
}

// ClaimRefund 退回出资
func (h *SaleHandler) ClaimRefund(c *gin.Context) {
	var req RefundRequest
	body, ok := signedBody(c, &req)
	if !ok {
		return
	}
	if req.Participant == "" {
		ErrorResponse(c, http.StatusBadRequest, "参与者地址不能为空")
		return
	}
	if err := h.verifier.Require(req.Participant, body, c.GetHeader(HeaderSignature)); err != nil {
		AbortResponse(c, err)
		return
	}

	if err := h.saleLogic.ClaimRefund(c.Request.Context(), req.Participant); err != nil {
		AbortResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "出资退回成功", nil)
}

// WithdrawRaisedFunds 划出募集资金，须由资金接收地址签名
func (h *SaleHandler) WithdrawRaisedFunds(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无法读取请求体")
		return
	}

	recipient, err := h.saleLogic.GetFundRecipient(c.Request.Context())
	if err != nil {
		AbortResponse(c, err)
		return
	}
	if err := h.verifier.Require(recipient, body, c.GetHeader(HeaderSignature)); err != nil {
		AbortResponse(c, err)
		return
	}

	if err := h.saleLogic.WithdrawRaisedFunds(c.Request.Context()); err != nil {
		AbortResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "募集资金划出成功", nil)
}

// 只读查询

// GetSaleToken 被售卖代币地址
func (h *SaleHandler) GetSaleToken(c *gin.Context) {
	token, err := h.saleLogic.GetSaleToken(c.Request.Context())
	if err != nil {
		AbortResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取售卖代币成功", AddressResponse{Address: token})
}

// GetSaleParameters 售卖参数
func (h *SaleHandler) GetSaleParameters(c *gin.Context) {
	params, err := h.saleLogic.GetSaleParameters(c.Request.Context())
	if err != nil {
		AbortResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取售卖参数成功", SaleParametersResponse{Parameters: params})
}

// GetSalePhase 推导的售卖阶段
func (h *SaleHandler) GetSalePhase(c *gin.Context) {
	phase, err := h.saleLogic.GetSalePhase(c.Request.Context())
	if err != nil {
		AbortResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取售卖阶段成功", PhaseResponse{Phase: phase})
}

// GetSupportedTokens 全部已登记支付代币
func (h *SaleHandler) GetSupportedTokens(c *gin.Context) {
	tokens, err := h.saleLogic.GetSupportedTokens(c.Request.Context())
	if err != nil {
		AbortResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取支付代币列表成功", TokenListResponse{Tokens: tokens})
}

// GetPaymentOptions 当前可用支付代币
func (h *SaleHandler) GetPaymentOptions(c *gin.Context) {
	tokens, err := h.saleLogic.GetPaymentOptions(c.Request.Context())
	if err != nil {
		AbortResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取可用支付代币成功", TokenListResponse{Tokens: tokens})
}

// GetSaleRate 某支付代币的兑换率
func (h *SaleHandler) GetSaleRate(c *gin.Context) {
	token := c.Param("token")
	rate, err := h.saleLogic.GetSaleRate(c.Request.Context(), token)
	if err != nil {
		AbortResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取兑换率成功", RateResponse{PaymentToken: token, Rate: rate})
}

// GetParticipantTotalPurchase 参与者已购入量
func (h *SaleHandler) GetParticipantTotalPurchase(c *gin.Context) {
	amount, err := h.saleLogic.GetParticipantTotalPurchase(c.Request.Context(), c.Param("address"))
	if err != nil {
		AbortResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取购入量成功", AmountResponse{Amount: amount.String()})
}

// GetParticipantContribution 参与者在某支付代币上的出资
func (h *SaleHandler) GetParticipantContribution(c *gin.Context) {
	amount, err := h.saleLogic.GetParticipantContribution(c.Request.Context(), c.Param("address"), c.Param("token"))
	if err != nil {
		AbortResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取出资余额成功", AmountResponse{Amount: amount.String()})
}

// GetPaymentPurchases 出资按当前兑换率折算的购入量
func (h *SaleHandler) GetPaymentPurchases(c *gin.Context) {
	amount, err := h.saleLogic.GetPaymentPurchases(c.Request.Context(), c.Param("address"), c.Param("token"))
	if err != nil {
		AbortResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取折算购入量成功", AmountResponse{Amount: amount.String()})
}

// GetTotalSold 累计售出量
func (h *SaleHandler) GetTotalSold(c *gin.Context) {
	total, err := h.saleLogic.GetTotalSold(c.Request.Context())
	if err != nil {
		AbortResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取累计售出量成功", AmountResponse{Amount: total.String()})
}

// GetTotalContribution 某支付代币的出资总额
func (h *SaleHandler) GetTotalContribution(c *gin.Context) {
	total, err := h.saleLogic.GetTotalContribution(c.Request.Context(), c.Param("token"))
	if err != nil {
		AbortResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取出资总额成功", AmountResponse{Amount: total.String()})
}

// GetParticipantsCount 独立参与者数量
func (h *SaleHandler) GetParticipantsCount(c *gin.Context) {
	count, err := h.saleLogic.GetParticipantsCount(c.Request.Context())
	if err != nil {
		AbortResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取参与者数量成功", CountResponse{Count: count})
}

// GetFundRecipient 资金接收地址
func (h *SaleHandler) GetFundRecipient(c *gin.Context) {
	recipient, err := h.saleLogic.GetFundRecipient(c.Request.Context())
	if err != nil {
		AbortResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取资金接收地址成功", AddressResponse{Address: recipient})
}

// GetAdmin 管理员地址
func (h *SaleHandler) GetAdmin(c *gin.Context) {
	admin, err := h.saleLogic.GetAdmin(c.Request.Context())
	if err != nil {
		AbortResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取管理员成功", AddressResponse{Address: admin})
}

// GetCurrentTimestamp 账本时钟当前值
func (h *SaleHandler) GetCurrentTimestamp(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "获取账本时间成功", TimestampResponse{
		Timestamp: h.saleLogic.GetCurrentTimestamp(c.Request.Context()),
	})
}

// toSaleParameters 请求体转售卖参数
func toSaleParameters(req SetSaleParametersRequest) model.SaleParameters {
	return model.SaleParameters{
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		SoftCap:   req.SoftCap,
		HardCap:   req.HardCap,
		MinBuy:    req.MinBuy,
		MaxBuy:    req.MaxBuy,
		TgeTime:   req.TgeTime,
	}
}
