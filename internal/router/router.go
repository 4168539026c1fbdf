package router

import (
	"github.com/blues/tss/internal/auth"
	"github.com/blues/tss/internal/handler"
	"github.com/blues/tss/internal/logic"
	"github.com/gin-gonic/gin"
)

func Setup(saleLogic *logic.SaleLogic, verifier *auth.Verifier) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "token-sale-service",
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		saleHandler := handler.NewSaleHandler(saleLogic, verifier)
		sale := v1.Group("/sale")
		{
			// 状态变更操作，请求体需带签名
			sale.POST("/initialize", saleHandler.Initialize)
			sale.POST("/token", saleHandler.SetSaleToken)
			sale.POST("/payment-tokens", saleHandler.SetPaymentToken)
			sale.POST("/parameters", saleHandler.SetSaleParameters)
			sale.POST("/rates", saleHandler.SetSwapRate)
			sale.POST("/fund-recipient", saleHandler.SetFundRecipient)
			sale.POST("/contributions", saleHandler.Contribute)
			sale.POST("/claims", saleHandler.ClaimPurchasedTokens)
			sale.POST("/refunds", saleHandler.ClaimRefund)
			sale.POST("/withdrawals", saleHandler.WithdrawRaisedFunds)

			// 只读查询
			sale.GET("/token", saleHandler.GetSaleToken)
			sale.GET("/parameters", saleHandler.GetSaleParameters)
			sale.GET("/phase", saleHandler.GetSalePhase)
			sale.GET("/supported-tokens", saleHandler.GetSupportedTokens)
			sale.GET("/payment-options", saleHandler.GetPaymentOptions)
			sale.GET("/rates/:token", saleHandler.GetSaleRate)
			sale.GET("/total-sold", saleHandler.GetTotalSold)
			sale.GET("/total-contributions/:token", saleHandler.GetTotalContribution)
			sale.GET("/participants-count", saleHandler.GetParticipantsCount)
			sale.GET("/participants/:address/purchase", saleHandler.GetParticipantTotalPurchase)
			sale.GET("/participants/:address/contributions/:token", saleHandler.GetParticipantContribution)
			sale.GET("/participants/:address/payment-purchases/:token", saleHandler.GetPaymentPurchases)
			sale.GET("/fund-recipient", saleHandler.GetFundRecipient)
			sale.GET("/admin", saleHandler.GetAdmin)
			sale.GET("/timestamp", saleHandler.GetCurrentTimestamp)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-Signature")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
