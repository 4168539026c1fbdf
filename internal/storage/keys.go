package storage

import (
	"fmt"
	"strings"
)

// 存储键构造
// 地址统一转小写，避免大小写混写导致同一地址落到不同键上

func normalizeAddr(addr string) string {
	return strings.ToLower(addr)
}

// AdminKey 合约管理员地址
func AdminKey() string { return "admin" }

// SaleTokenKey 被售卖代币地址
func SaleTokenKey() string { return "sale_token" }

// FundRecipientKey 募集资金接收地址
func FundRecipientKey() string { return "fund_recipient" }

// SaleParametersKey 售卖参数（整组存储）
func SaleParametersKey() string { return "sale_parameters" }

// PaymentTokenCountKey 已登记支付代币数量
func PaymentTokenCountKey() string { return "payment_token_count" }

// PaymentTokenKey 第index个支付代币地址，index从1开始
func PaymentTokenKey(index uint64) string {
	return fmt.Sprintf("payment_token:%d", index)
}

// IsSupportedPaymentKey 支付代币支持标记
func IsSupportedPaymentKey(token string) string {
	return fmt.Sprintf("is_supported_payment:%s", normalizeAddr(token))
}

// SaleRateKey 支付代币兑换率
func SaleRateKey(token string) string {
	return fmt.Sprintf("sale_rate:%s", normalizeAddr(token))
}

// ParticipantContributionKey 参与者在某支付代币上的出资余额
func ParticipantContributionKey(participant, token string) string {
	return fmt.Sprintf("participant_contribution:%s:%s", normalizeAddr(participant), normalizeAddr(token))
}

// TotalContributionKey 某支付代币的出资总额
func TotalContributionKey(token string) string {
	return fmt.Sprintf("total_contribution:%s", normalizeAddr(token))
}

// AmountPurchasedKey 参与者已购入的售卖代币数量
func AmountPurchasedKey(participant string) string {
	return fmt.Sprintf("amount_purchased:%s", normalizeAddr(participant))
}

// TotalSoldKey 售卖代币累计售出量
func TotalSoldKey() string { return "total_tokens_sold" }

// ParticipantsCountKey 独立参与者数量
func ParticipantsCountKey() string { return "participants_count" }
