package logic

import (
	"context"
	"math/big"

	"github.com/blues/tss/internal/logger"
	"github.com/blues/tss/internal/model"
	"github.com/blues/tss/internal/storage"
	"gorm.io/gorm"
)

// SaleLogic 售卖引擎
// 七个状态变更操作各自运行在一笔数据库事务里，任一步失败整笔回滚。
// 链上转账不可回滚，放在事务边界之外：转入只在全部校验通过后执行，
// 转出一律先清零余额并落支付流水，再按流水逐条转账。
// 授权校验由HTTP边界完成。
type SaleLogic struct {
	db        *gorm.DB
	custodian Custodian
	clock     Clock
}

// NewSaleLogic 创建售卖引擎
func NewSaleLogic(db *gorm.DB, custodian Custodian, clock Clock) *SaleLogic {
	return &SaleLogic{db: db, custodian: custodian, clock: clock}
}

// Initialize 设置管理员，只允许一次
func (s *SaleLogic) Initialize(ctx context.Context, admin string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st := storage.NewStore(tx)
		exists, err := hasAdmin(st)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyInitialized
		}
		return writeAdmin(st, admin)
	})
}

// SetSaleToken 设置被售卖代币
func (s *SaleLogic) SetSaleToken(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return writeSaleToken(storage.NewStore(tx), token)
	})
}

// SetPaymentToken 登记一个支付代币
func (s *SaleLogic) SetPaymentToken(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return writePaymentToken(storage.NewStore(tx), token)
	})
}

// SetSaleParameters 写入售卖参数并按硬顶托管售卖代币
// 开售前托管账户必须持有足以覆盖全部可能购买的售卖代币
func (s *SaleLogic) SetSaleParameters(ctx context.Context, params model.SaleParameters) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st := storage.NewStore(tx)

		if err := writeSaleParameters(st, s.clock.Now(), params); err != nil {
			return err
		}

		saleToken, err := readSaleToken(st)
		if err != nil {
			return err
		}
		admin, err := readAdmin(st)
		if err != nil {
			return err
		}
		hardCap := new(big.Int).SetUint64(params.HardCap)
		if err := s.custodian.EscrowIn(ctx, saleToken, admin, hardCap); err != nil {
			return err
		}

		// 托管账户必须实际持有覆盖硬顶的售卖代币才能开售
		balance, err := s.custodian.TokenBalance(ctx, saleToken)
		if err != nil {
			return err
		}
		if balance.Cmp(hardCap) < 0 {
			return ErrEscrowShortfall
		}
		return nil
	})
}

// SetSwapRate 设置支付代币兑换率，率为0时该代币退出批量结算
func (s *SaleLogic) SetSwapRate(ctx context.Context, token string, rate uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st := storage.NewStore(tx)
		supported, err := readIsSupportedPaymentToken(st, token)
		if err != nil {
			return err
		}
		if !supported {
			return ErrTokenNotSupported
		}
		return writeSaleRate(st, token, rate)
	})
}

// SetFundRecipient 设置募集资金接收地址
func (s *SaleLogic) SetFundRecipient(ctx context.Context, recipient string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return writeFundRecipient(storage.NewStore(tx), recipient)
	})
}

// Contribute 参与者出资
// 购买限额按兑换后的售卖代币数量判定，不看原始出资额
func (s *SaleLogic) Contribute(ctx context.Context, participant, token string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st := storage.NewStore(tx)

		supported, err := readIsSupportedPaymentToken(st, token)
		if err != nil {
			return err
		}
		if !supported {
			return ErrTokenNotSupported
		}

		params, _, err := readSaleParameters(st)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if params.EndTime < now {
			return ErrSaleOver
		}

		rate, err := readSaleRate(st, token)
		if err != nil {
			return err
		}
		purchased := new(big.Int).Mul(amount, new(big.Int).SetUint64(rate))

		if purchased.Cmp(new(big.Int).SetUint64(params.MinBuy)) < 0 {
			return ErrBelowMinBuy
		}
		maxBuy := new(big.Int).SetUint64(params.MaxBuy)
		if purchased.Cmp(maxBuy) > 0 {
			return ErrAboveMaxBuy
		}

		// 累计购买限额：必须在托管转入前判定，拒绝的出资不能先扣走支付代币
		prePurchase, err := readParticipantPurchase(st, participant)
		if err != nil {
			return err
		}
		totalPurchased := new(big.Int).Add(prePurchase, purchased)
		if totalPurchased.Cmp(maxBuy) > 0 {
			return ErrMaxBuyExceeded
		}

		// 全局售出上限：超过硬顶的购买直接拒绝，托管量不会被超卖
		totalSold, err := readTotalSold(st)
		if err != nil {
			return err
		}
		if new(big.Int).Add(totalSold, purchased).Cmp(new(big.Int).SetUint64(params.HardCap)) > 0 {
			return ErrHardCapExceeded
		}

		if err := s.custodian.EscrowIn(ctx, token, participant, amount); err != nil {
			return err
		}

		if err := recordContribution(st, participant, token, amount); err != nil {
			return err
		}
		if err := creditPurchase(st, participant, prePurchase, totalPurchased); err != nil {
			return err
		}
		return addTotalSold(st, purchased)
	})
}

// ClaimPurchasedTokens 售卖成功且过了TGE时间后领取已购代币
// 事务内清零余额并登记划转流水，提交后立即结算
func (s *SaleLogic) ClaimPurchasedTokens(ctx context.Context, participant string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st := storage.NewStore(tx)

		params, _, err := readSaleParameters(st)
		if err != nil {
			return err
		}
		totalSold, err := readTotalSold(st)
		if err != nil {
			return err
		}
		if totalSold.Cmp(new(big.Int).SetUint64(params.SoftCap)) < 0 {
			return ErrSaleNotSuccessful
		}
		if params.TgeTime > s.clock.Now() {
			return ErrBeforeTge
		}

		claimable, err := zeroParticipantPurchase(st, participant)
		if err != nil {
			return err
		}
		if claimable.Sign() == 0 {
			return ErrNothingToClaim
		}

		saleToken, err := readSaleToken(st)
		if err != nil {
			return err
		}
		if err := queuePayout(tx, model.PayoutKindClaim, participant, saleToken, claimable); err != nil {
			return err
		}

		logger.Info("Participant %s claimed %s sale tokens", participant, claimable.String())
		return nil
	})
	if err != nil {
		return err
	}

	s.settlePayouts(ctx)
	return nil
}

// ClaimRefund 售卖失败后退回出资
// 达到软顶即算成功，成功的售卖不可退款。全部支付代币的清零和流水
// 登记落在同一笔事务里，不存在只退一半的中间状态。
func (s *SaleLogic) ClaimRefund(ctx context.Context, participant string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st := storage.NewStore(tx)

		params, _, err := readSaleParameters(st)
		if err != nil {
			return err
		}
		totalSold, err := readTotalSold(st)
		if err != nil {
			return err
		}
		if totalSold.Cmp(new(big.Int).SetUint64(params.SoftCap)) >= 0 {
			return ErrSaleSuccessful
		}
		if params.EndTime > s.clock.Now() {
			return ErrSaleNotOver
		}

		tokens, err := readActivePaymentTokens(st)
		if err != nil {
			return err
		}

		refunded := false
		for _, token := range tokens {
			amount, err := zeroParticipantContribution(st, participant, token)
			if err != nil {
				return err
			}
			if amount.Sign() == 0 {
				continue
			}
			if err := queuePayout(tx, model.PayoutKindRefund, participant, token, amount); err != nil {
				return err
			}
			refunded = true
		}
		if !refunded {
			return ErrNothingToRefund
		}

		logger.Info("Participant %s refunded across %d payment tokens", participant, len(tokens))
		return nil
	})
	if err != nil {
		return err
	}

	s.settlePayouts(ctx)
	return nil
}

// WithdrawRaisedFunds 售卖成功结束后把募集资金划给接收地址
func (s *SaleLogic) WithdrawRaisedFunds(ctx context.Context) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st := storage.NewStore(tx)

		recipient, err := readFundRecipient(st)
		if err != nil {
			return err
		}
		params, _, err := readSaleParameters(st)
		if err != nil {
			return err
		}
		if params.EndTime > s.clock.Now() {
			return ErrSaleNotOver
		}
		totalSold, err := readTotalSold(st)
		if err != nil {
			return err
		}
		if totalSold.Cmp(new(big.Int).SetUint64(params.SoftCap)) < 0 {
			return ErrSoftCapNotReached
		}

		tokens, err := readActivePaymentTokens(st)
		if err != nil {
			return err
		}
		for _, token := range tokens {
			funds, err := zeroTotalContribution(st, token)
			if err != nil {
				return err
			}
			if funds.Sign() == 0 {
				continue
			}
			if err := queuePayout(tx, model.PayoutKindWithdrawal, recipient, token, funds); err != nil {
				return err
			}
			logger.Info("Withdrawing %s of token %s to %s", funds.String(), token, recipient)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.settlePayouts(ctx)
	return nil
}
