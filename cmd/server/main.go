package main

import (
	"github.com/blues/tss/internal/auth"
	"github.com/blues/tss/internal/config"
	"github.com/blues/tss/internal/database"
	"github.com/blues/tss/internal/ethereum"
	"github.com/blues/tss/internal/logger"
	"github.com/blues/tss/internal/logic"
	"github.com/blues/tss/internal/router"
	"github.com/blues/tss/internal/scheduler"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	if err := logger.InitFromConfig(cfg.Log); err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化托管链上客户端
	ethClient, err := ethereum.Init(cfg.Chain)
	if err != nil {
		logger.Fatal("Failed to initialize ethereum client: %v", err)
	}
	logger.Info("Custody account: %s", ethClient.CustodyAddress())

	// 账本时钟：链上区块时间或本地时间
	var clock logic.Clock = logic.LocalClock{}
	if cfg.Chain.UseChainTime {
		clock = ethClient
	}

	// 初始化售卖引擎
	saleLogic := logic.NewSaleLogic(db, ethClient, clock)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(saleLogic, auth.NewVerifier())

	// 启动后台任务
	manager := scheduler.Start(db, saleLogic, cfg)
	defer manager.Stop()

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
