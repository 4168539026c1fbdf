package scheduler

import (
	"sync"
	"time"

	"github.com/blues/tss/internal/config"
	"github.com/blues/tss/internal/logger"
	"github.com/blues/tss/internal/storage"
	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// sweepPoolSize 清理协程池大小
const sweepPoolSize = 8

// LeaseSweepJob 租约清理任务
// 过期的记账条目在读路径上已按缺省值处理，这里定期把它们物理删除，
// 避免失效数据在表里无限堆积
type LeaseSweepJob struct {
	db     *gorm.DB
	config *config.Config
}

// NewLeaseSweepJob 创建租约清理任务
func NewLeaseSweepJob(db *gorm.DB, cfg *config.Config) *LeaseSweepJob {
	return &LeaseSweepJob{
		db:     db,
		config: cfg,
	}
}

// GetName 获取任务名称
func (j *LeaseSweepJob) GetName() string {
	return "lease_sweeper"
}

// GetSchedule 获取调度配置
func (j *LeaseSweepJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *LeaseSweepJob) Execute() {
	st := storage.NewStore(j.db)

	keys, err := st.ExpiredKeys(j.config.Task.SweepBatch)
	if err != nil {
		logger.Error("Failed to list expired entries: %v", err)
		return
	}
	if len(keys) == 0 {
		return
	}

	// 用临时协程池并发删除本批过期条目
	poolSize := sweepPoolSize
	if len(keys) < poolSize {
		poolSize = len(keys)
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		logger.Error("Failed to create sweep pool: %v", err)
		return
	}
	defer pool.Release()

	var wg sync.WaitGroup
	var mu sync.Mutex
	removed := 0

	for _, key := range keys {
		key := key
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			deleted, err := st.DeleteExpired(key)
			if err != nil {
				logger.Error("Failed to delete expired entry %s: %v", key, err)
				return
			}
			if deleted {
				mu.Lock()
				removed++
				mu.Unlock()
			}
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit sweep task for %s: %v", key, err)
		}
	}
	wg.Wait()

	logger.Info("Lease sweep removed %d of %d expired entries", removed, len(keys))
}
