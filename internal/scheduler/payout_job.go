package scheduler

import (
	"context"
	"time"

	"github.com/blues/tss/internal/config"
	"github.com/blues/tss/internal/logger"
	"github.com/blues/tss/internal/logic"
	"github.com/go-co-op/gocron/v2"
)

// PayoutJob 支付流水执行任务
// 领取、退款、提款在记账事务里只登记流水；正常情况下流水在操作
// 提交后立即结算，这里兜底重试转账失败后退回pending的流水
type PayoutJob struct {
	saleLogic *logic.SaleLogic
	config    *config.Config
}

// NewPayoutJob 创建支付流水执行任务
func NewPayoutJob(saleLogic *logic.SaleLogic, cfg *config.Config) *PayoutJob {
	return &PayoutJob{
		saleLogic: saleLogic,
		config:    cfg,
	}
}

// GetName 获取任务名称
func (j *PayoutJob) GetName() string {
	return "payout_executor"
}

// GetSchedule 获取调度配置
func (j *PayoutJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *PayoutJob) Execute() {
	sent, err := j.saleLogic.ExecutePendingPayouts(context.Background(), j.config.Task.SweepBatch)
	if err != nil {
		logger.Error("Failed to execute pending payouts: %v", err)
		return
	}
	if sent > 0 {
		logger.Info("Payout executor sent %d transfers", sent)
	}
}
