package scheduler

import (
	"github.com/blues/tss/internal/config"
	"github.com/blues/tss/internal/logger"
	"github.com/blues/tss/internal/logic"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// Manager 后台任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	db        *gorm.DB
	saleLogic *logic.SaleLogic
	config    *config.Config
}

// NewManager 创建后台任务管理器
func NewManager(db *gorm.DB, saleLogic *logic.SaleLogic, cfg *config.Config) *Manager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &Manager{
		scheduler: s,
		db:        db,
		saleLogic: saleLogic,
		config:    cfg,
	}
}

// Start 启动后台任务
func Start(db *gorm.DB, saleLogic *logic.SaleLogic, cfg *config.Config) *Manager {
	manager := NewManager(db, saleLogic, cfg)

	// 注册所有任务
	manager.RegisterJobs()

	// 启动调度器
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() {
	m.registerJob(NewLeaseSweepJob(m.db, m.config))
	m.registerJob(NewPayoutJob(m.saleLogic, m.config))
	m.registerJob(NewSalePhaseJob(m.saleLogic, m.config))
}

// Job 后台任务
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// registerJob 注册单个任务
func (m *Manager) registerJob(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop 停止后台任务
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
