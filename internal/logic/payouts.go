package logic

import (
	"context"
	"fmt"
	"math/big"

	"github.com/blues/tss/internal/logger"
	"github.com/blues/tss/internal/model"
	"gorm.io/gorm"
)

// settleBatch 单次操作后立即结算的流水条数上限
const settleBatch = 32

// queuePayout 在记账事务里登记一条待执行的对外划转
func queuePayout(tx *gorm.DB, kind model.PayoutKind, beneficiary, token string, amount *big.Int) error {
	record := model.PayoutRecord{
		Kind:        string(kind),
		Beneficiary: beneficiary,
		Token:       token,
		Amount:      amount.String(),
		Status:      string(model.PayoutStatusPending),
	}
	return tx.Create(&record).Error
}

// ExecutePendingPayouts 逐条执行pending流水
// 每条流水先抢占为processing再转账，成功置为sent，失败回到pending
// 累加尝试次数。抢占带状态条件，并发执行器不会重复转出同一条。
func (s *SaleLogic) ExecutePendingPayouts(ctx context.Context, limit int) (int, error) {
	var records []model.PayoutRecord
	err := s.db.WithContext(ctx).
		Where("status = ?", model.PayoutStatusPending).
		Order("id").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, record := range records {
		claimed := s.db.WithContext(ctx).Model(&model.PayoutRecord{}).
			Where("id = ? AND status = ?", record.ID, model.PayoutStatusPending).
			Update("status", model.PayoutStatusProcessing)
		if claimed.Error != nil {
			return sent, claimed.Error
		}
		if claimed.RowsAffected == 0 {
			continue
		}

		if err := s.executePayout(ctx, record); err != nil {
			logger.Error("Payout %d (%s %s to %s) failed: %v",
				record.ID, record.Kind, record.Amount, record.Beneficiary, err)
			s.releasePayout(ctx, record.ID, err)
			continue
		}
		sent++
	}
	return sent, nil
}

// executePayout 执行单条流水的链上转出并落账
func (s *SaleLogic) executePayout(ctx context.Context, record model.PayoutRecord) error {
	amount, valid := new(big.Int).SetString(record.Amount, 10)
	if !valid {
		return fmt.Errorf("流水 %d 金额不合法: %s", record.ID, record.Amount)
	}

	if err := s.custodian.EscrowOut(ctx, record.Token, record.Beneficiary, amount); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Model(&model.PayoutRecord{}).
		Where("id = ?", record.ID).
		Update("status", model.PayoutStatusSent).Error
}

// releasePayout 转账失败的流水退回pending，记录失败原因
func (s *SaleLogic) releasePayout(ctx context.Context, id uint, cause error) {
	err := s.db.WithContext(ctx).Model(&model.PayoutRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     model.PayoutStatusPending,
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": cause.Error(),
		}).Error
	if err != nil {
		logger.Error("Failed to release payout %d: %v", id, err)
	}
}

// settlePayouts 记账提交后立刻尝试结算一批流水
// 失败不影响已提交的记账，剩余流水由后台执行器兜底重试
func (s *SaleLogic) settlePayouts(ctx context.Context) {
	if _, err := s.ExecutePendingPayouts(ctx, settleBatch); err != nil {
		logger.Error("Failed to settle payouts: %v", err)
	}
}
