package logic

import (
	"context"
	"math/big"
	"time"
)

// Custodian 外部资产转移机制
// 链上转账不可回滚：转入只在全部校验通过后执行，转出一律先记账
// 再由支付流水异步执行
type Custodian interface {
	// EscrowIn 把amount个token从from转入托管
	EscrowIn(ctx context.Context, token, from string, amount *big.Int) error
	// EscrowOut 把amount个token从托管转给to
	EscrowOut(ctx context.Context, token, to string, amount *big.Int) error
	// TokenBalance 托管账户在某代币上的余额
	TokenBalance(ctx context.Context, token string) (*big.Int, error)
}

// Clock 账本时钟，返回单调不减的Unix秒
type Clock interface {
	Now() uint64
}

// LocalClock 本地时钟
type LocalClock struct{}

func (LocalClock) Now() uint64 {
	return uint64(time.Now().Unix())
}
