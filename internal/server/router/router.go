package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/swiftcheckout/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(checkout *handlers.CheckoutHandler, reporting *handlers.ReportingHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/currencies", checkout.Currencies)

	reg := r.Group("/registers/:register")
	{
		reg.GET("", checkout.View)
		reg.POST("/items", checkout.AddItem)
		reg.POST("/items/lookup", checkout.Lookup)
		reg.POST("/items/scan", checkout.Scan)
		reg.POST("/items/voice", checkout.Voice)
		reg.PATCH("/items/:item", checkout.UpdateQuantity)
		reg.DELETE("/items/:item", checkout.RemoveItem)
		reg.PUT("/discount", checkout.Discount)
		reg.PUT("/tax", checkout.Tax)
		reg.PUT("/currency", checkout.Currency)
		reg.GET("/suggestions", checkout.Suggestions)
		reg.POST("/finalize", checkout.Finalize)
		reg.POST("/cancel", checkout.Cancel)
		reg.POST("/pay", checkout.Pay)
	}

	r.GET("/history", reporting.History)
	r.DELETE("/history", reporting.ClearHistory)
	r.GET("/dashboard/sales", reporting.Dashboard)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("register", c.Param("register")),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
