package model

import (
	"time"
)

// PayoutRecord 对外划转流水
// 链上转出不可回滚，不能和记账写在同一笔事务里直接执行：
// 记账事务只负责清零余额并落一条pending流水，实际转账由支付
// 执行器按流水逐条完成，失败的流水回到pending等待重试。
type PayoutRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Kind        string `json:"kind" gorm:"not null"`                    // claim, refund, withdrawal
	Beneficiary string `json:"beneficiary" gorm:"not null;index"`       // 收款地址
	Token       string `json:"token" gorm:"not null"`                   // 代币合约地址
	Amount      string `json:"amount" gorm:"not null"`                  // 划转数量，十进制字符串
	Status      string `json:"status" gorm:"default:'pending';index"`   // pending, processing, sent
	Attempts    int    `json:"attempts" gorm:"default:0"`               // 已尝试次数
	LastError   string `json:"last_error" gorm:"type:text"`             // 最近一次失败原因
}

// PayoutKind 划转类型
type PayoutKind string

const (
	PayoutKindClaim      PayoutKind = "claim"      // 领取已购代币
	PayoutKindRefund     PayoutKind = "refund"     // 退回出资
	PayoutKindWithdrawal PayoutKind = "withdrawal" // 划出募集资金
)

// PayoutStatus 划转状态
type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "pending"    // 待执行，可被执行器领取
	PayoutStatusProcessing PayoutStatus = "processing" // 执行中，转账结果未落账前不再重试
	PayoutStatusSent       PayoutStatus = "sent"       // 已转出
)
