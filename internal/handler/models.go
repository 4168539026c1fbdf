package handler

import (
	"github.com/blues/tss/internal/model"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 请求模型
// 状态变更请求的原始请求体需由操作地址做personal-sign，
// 签名放在 X-Signature 头里

// InitializeRequest 初始化管理员请求
type InitializeRequest struct {
	Admin string `json:"admin" binding:"required"`
}

// SetSaleTokenRequest 设置售卖代币请求
type SetSaleTokenRequest struct {
	TokenAddress string `json:"token_address" binding:"required"`
}

// SetPaymentTokenRequest 登记支付代币请求
type SetPaymentTokenRequest struct {
	PaymentToken string `json:"payment_token" binding:"required"`
}

// SetSaleParametersRequest 设置售卖参数请求
type SetSaleParametersRequest struct {
	StartTime uint64 `json:"start_time"`
	EndTime   uint64 `json:"end_time"`
	SoftCap   uint64 `json:"soft_cap"`
	HardCap   uint64 `json:"hard_cap"`
	MinBuy    uint64 `json:"min_buy"`
	MaxBuy    uint64 `json:"max_buy"`
	TgeTime   uint64 `json:"tge_time"`
}

// SetSwapRateRequest 设置兑换率请求
type SetSwapRateRequest struct {
	PaymentToken string `json:"payment_token" binding:"required"`
	Rate         uint64 `json:"rate"`
}

// SetFundRecipientRequest 设置资金接收地址请求
type SetFundRecipientRequest struct {
	Recipient string `json:"recipient" binding:"required"`
}

// ContributeRequest 出资请求，金额为十进制字符串
type ContributeRequest struct {
	Participant  string `json:"participant" binding:"required"`
	PaymentToken string `json:"payment_token" binding:"required"`
	Amount       string `json:"amount" binding:"required"`
}

// ClaimRequest 领取已购代币请求
type ClaimRequest struct {
	Participant string `json:"participant" binding:"required"`
}

// RefundRequest 退款请求
type RefundRequest struct {
	Participant string `json:"participant" binding:"required"`
}

// 响应模型

// SaleParametersResponse 售卖参数响应
type SaleParametersResponse struct {
	Parameters model.SaleParameters `json:"parameters"`
}

// AddressResponse 单地址响应
type AddressResponse struct {
	Address string `json:"address"`
}

// TokenListResponse 代币列表响应
type TokenListResponse struct {
	Tokens []string `json:"tokens"`
}

// RateResponse 兑换率响应
type RateResponse struct {
	PaymentToken string `json:"payment_token"`
	Rate         uint64 `json:"rate"`
}

// AmountResponse 金额响应，金额为十进制字符串
type AmountResponse struct {
	Amount string `json:"amount"`
}

// CountResponse 计数响应
type CountResponse struct {
	Count uint64 `json:"count"`
}

// TimestampResponse 账本时间响应
type TimestampResponse struct {
	Timestamp uint64 `json:"timestamp"`
}

// PhaseResponse 售卖阶段响应
type PhaseResponse struct {
	Phase model.SalePhase `json:"phase"`
}
