package logic

import "errors"

// 售卖引擎的失败原因
// 所有失败都中止整笔操作，记账事务回滚，不保留部分记账效果
var (
	ErrAlreadyInitialized  = errors.New("管理员已初始化")
	ErrNotInitialized      = errors.New("管理员尚未初始化")
	ErrSaleTokenNotSet     = errors.New("售卖代币尚未设置")
	ErrFundRecipientNotSet = errors.New("资金接收地址尚未设置")
	ErrInvalidParameters   = errors.New("售卖参数不合法")
	ErrInvalidAmount       = errors.New("出资金额必须为正整数")
	ErrTokenNotSupported   = errors.New("该代币不是受支持的支付选项")
	ErrSaleOver            = errors.New("本次售卖已结束")
	ErrBelowMinBuy         = errors.New("购买数量低于最小限额")
	ErrAboveMaxBuy         = errors.New("购买数量高于最大限额")
	ErrMaxBuyExceeded      = errors.New("累计购买数量将超过最大限额")
	ErrHardCapExceeded     = errors.New("售出总量将超过硬顶")
	ErrSaleNotSuccessful   = errors.New("售卖未成功，请申请退回出资")
	ErrSaleSuccessful      = errors.New("售卖已成功，请领取已购代币")
	ErrBeforeTge           = errors.New("TGE时间未到，暂不能领取")
	ErrSaleNotOver         = errors.New("售卖尚未结束")
	ErrSoftCapNotReached   = errors.New("未达到软顶，售卖未成功")
	ErrNothingToClaim      = errors.New("该地址没有可领取的代币")
	ErrNothingToRefund     = errors.New("该地址没有可退回的出资")
	ErrEscrowShortfall     = errors.New("托管账户的售卖代币余额不足以覆盖硬顶")
)
