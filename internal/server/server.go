package server

import (
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"stratfolio/internal/engine"
	"stratfolio/internal/marketdata"
	"stratfolio/types"
)

type Options struct {
	AllowedOrigins  []string
	ProviderTimeout time.Duration
}

func NewRouter(provider marketdata.Provider, eng *engine.Engine, opts Options) *gin.Engine {
	registerValidations()

	timeout := opts.ProviderTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	r := gin.New()
	r.Use(gin.Recovery(), corsMiddleware(opts.AllowedOrigins))

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := r.Group("/api")
	api.POST("/backtest/portfolio_buy_and_hold", HandlePortfolioBacktest(provider, eng, timeout))
	api.POST("/thestrat", HandleTheStrat(provider, eng, timeout))
	return r
}

var validationsOnce sync.Once

func registerValidations() {
	validationsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterStructValidation(backtestStructValidation, backtestRequest{})
		v.RegisterStructValidation(thestratStructValidation, thestratRequest{})
	})
}

// backtestStructValidation holds the cross-field rules gin's tag
// bindings cannot express: weights summing to 1 and a date range that
// actually runs forward.
func backtestStructValidation(sl validator.StructLevel) {
	req := sl.Current().Interface().(backtestRequest)

	sum := 0.0
	for _, a := range req.Assets {
		sum += a.Weight
	}
	if math.Abs(sum-1) > types.WeightSumTolerance {
		sl.ReportError(req.Assets, "assets", "Assets", "weightsum", "")
	}

	if start, end, err := parseDateRange(req.StartDate, req.EndDate); err == nil && !end.After(start) {
		sl.ReportError(req.EndDate, "end_date", "EndDate", "afterstart", "")
	}
}

func thestratStructValidation(sl validator.StructLevel) {
	req := sl.Current().Interface().(thestratRequest)
	if start, end, err := parseDateRange(req.StartDate, req.EndDate); err == nil && !end.After(start) {
		sl.ReportError(req.EndDate, "end_date", "EndDate", "afterstart", "")
	}
}

func parseDateRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02", startStr, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.ParseInLocation("2006-01-02", endStr, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" && allowed[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
