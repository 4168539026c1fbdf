package scheduler

import (
	"context"
	"time"

	"github.com/blues/tss/internal/config"
	"github.com/blues/tss/internal/logger"
	"github.com/blues/tss/internal/logic"
	"github.com/go-co-op/gocron/v2"
)

// SalePhaseJob 售卖阶段巡检任务
// 阶段是推导值，不落库；任务周期性重算并记录，便于运营观察售卖进展
type SalePhaseJob struct {
	saleLogic *logic.SaleLogic
	config    *config.Config
}

// NewSalePhaseJob 创建售卖阶段巡检任务
func NewSalePhaseJob(saleLogic *logic.SaleLogic, cfg *config.Config) *SalePhaseJob {
	return &SalePhaseJob{
		saleLogic: saleLogic,
		config:    cfg,
	}
}

// GetName 获取任务名称
func (j *SalePhaseJob) GetName() string {
	return "sale_phase_inspector"
}

// GetSchedule 获取调度配置
func (j *SalePhaseJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *SalePhaseJob) Execute() {
	ctx := context.Background()

	phase, err := j.saleLogic.GetSalePhase(ctx)
	if err != nil {
		logger.Error("Failed to derive sale phase: %v", err)
		return
	}

	totalSold, err := j.saleLogic.GetTotalSold(ctx)
	if err != nil {
		logger.Error("Failed to read total sold: %v", err)
		return
	}

	count, err := j.saleLogic.GetParticipantsCount(ctx)
	if err != nil {
		logger.Error("Failed to read participants count: %v", err)
		return
	}

	logger.Info("Sale phase: %s, total sold: %s, participants: %d", phase, totalSold.String(), count)
}
