package logic

import (
	"context"
	"math/big"

	"github.com/blues/tss/internal/model"
	"github.com/blues/tss/internal/storage"
)

// 只读查询
// 读操作不改变售卖语义，但会作为副作用给记账条目续租；
// 无缺省值的身份字段（管理员、售卖代币、接收地址）未配置时报错，
// 其余缺失一律按零值返回。

func (s *SaleLogic) store(ctx context.Context) *storage.Store {
	return storage.NewStore(s.db.WithContext(ctx))
}

// GetAdmin 管理员地址
func (s *SaleLogic) GetAdmin(ctx context.Context) (string, error) {
	return readAdmin(s.store(ctx))
}

// GetSaleToken 被售卖代币地址
func (s *SaleLogic) GetSaleToken(ctx context.Context) (string, error) {
	return readSaleToken(s.store(ctx))
}

// GetFundRecipient 募集资金接收地址
func (s *SaleLogic) GetFundRecipient(ctx context.Context) (string, error) {
	return readFundRecipient(s.store(ctx))
}

// GetSaleParameters 售卖参数，未配置时返回零值
func (s *SaleLogic) GetSaleParameters(ctx context.Context) (model.SaleParameters, error) {
	params, _, err := readSaleParameters(s.store(ctx))
	return params, err
}

// GetSupportedTokens 全部已登记的支付代币
func (s *SaleLogic) GetSupportedTokens(ctx context.Context) ([]string, error) {
	return readPaymentTokens(s.store(ctx))
}

// GetPaymentOptions 当前可用的支付代币（兑换率非零）
func (s *SaleLogic) GetPaymentOptions(ctx context.Context) ([]string, error) {
	return readActivePaymentTokens(s.store(ctx))
}

// GetSaleRate 某支付代币的兑换率
func (s *SaleLogic) GetSaleRate(ctx context.Context, token string) (uint64, error) {
	return readSaleRate(s.store(ctx), token)
}

// GetParticipantContribution 参与者在某支付代币上的出资余额
func (s *SaleLogic) GetParticipantContribution(ctx context.Context, participant, token string) (*big.Int, error) {
	return readParticipantContribution(s.store(ctx), participant, token)
}

// GetParticipantTotalPurchase 参与者已购入的售卖代币数量
func (s *SaleLogic) GetParticipantTotalPurchase(ctx context.Context, participant string) (*big.Int, error) {
	return readParticipantPurchase(s.store(ctx), participant)
}

// GetPaymentPurchases 参与者在某支付代币上的出资按当前兑换率折算的购入量
func (s *SaleLogic) GetPaymentPurchases(ctx context.Context, participant, token string) (*big.Int, error) {
	st := s.store(ctx)
	rate, err := readSaleRate(st, token)
	if err != nil {
		return nil, err
	}
	contribution, err := readParticipantContribution(st, participant, token)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Mul(contribution, new(big.Int).SetUint64(rate)), nil
}

// GetTotalSold 售卖代币累计售出量
func (s *SaleLogic) GetTotalSold(ctx context.Context) (*big.Int, error) {
	return readTotalSold(s.store(ctx))
}

// GetTotalContribution 某支付代币的出资总额
func (s *SaleLogic) GetTotalContribution(ctx context.Context, token string) (*big.Int, error) {
	return readTotalContribution(s.store(ctx), token)
}

// GetParticipantsCount 独立参与者数量
func (s *SaleLogic) GetParticipantsCount(ctx context.Context) (uint64, error) {
	return readParticipantsCount(s.store(ctx))
}

// GetCurrentTimestamp 账本时钟当前值
func (s *SaleLogic) GetCurrentTimestamp(ctx context.Context) uint64 {
	return s.clock.Now()
}

// GetSalePhase 推导当前售卖阶段
func (s *SaleLogic) GetSalePhase(ctx context.Context) (model.SalePhase, error) {
	st := s.store(ctx)
	params, configured, err := readSaleParameters(st)
	if err != nil {
		return "", err
	}
	totalSold, err := readTotalSold(st)
	if err != nil {
		return "", err
	}
	return DerivePhase(params, configured, totalSold, s.clock.Now()), nil
}

// DerivePhase 由参数、累计售出量和当前时间推导售卖阶段
// 阶段从不落库，避免与参数、总量产生第二份可失配的真相
func DerivePhase(params model.SaleParameters, configured bool, totalSold *big.Int, now uint64) model.SalePhase {
	if !configured {
		return model.SalePhaseUnconfigured
	}
	if now < params.StartTime {
		return model.SalePhaseConfigured
	}
	if now <= params.EndTime {
		return model.SalePhaseActive
	}
	if totalSold.Cmp(new(big.Int).SetUint64(params.SoftCap)) >= 0 {
		return model.SalePhaseSuccess
	}
	return model.SalePhaseFailed
}
