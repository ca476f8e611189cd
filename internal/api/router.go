package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the ledger routes onto a gin engine.
func NewRouter(svc LedgerService, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := NewHandler(svc)
	v1 := router.Group("/v1")
	{
		v1.POST("/accounts", h.CreateAccount)
		v1.GET("/accounts/:accountId", h.GetAccount)
		v1.GET("/accounts/:accountId/transactions", h.ListTransactions)
		v1.POST("/accounts/:accountId/deposits", h.Deposit)
		v1.POST("/accounts/:accountId/withdrawals", h.Withdraw)
		v1.POST("/transfers", h.Transfer)
	}
	return router
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
