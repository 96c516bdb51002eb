// Package webhook provides the messaging webhook bounded context module:
// subscription verification, inbound message dispatch and delivery status
// callbacks.
package webhook

import (
	apphttp "property_service_backend/internal/http"
	"property_service_backend/platform/config"
	"property_service_backend/platform/httpkit"
	"property_service_backend/platform/logger"
	"property_service_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler   *Handler
	limiter   *httpkit.IPRateLimiter
	signature gin.HandlerFunc
}

// NewModule creates the webhook module. A non-positive rate limit in cfg
// disables per-IP limiting, which is the default: provider deliveries come
// from a small address pool and must be acknowledged once they parse.
func NewModule(webhookCfg config.WebhookConfig, httpCfg config.HTTPConfig, processor Processor, statuses StatusUpdater, val *validator.Validator, log *logger.Logger) (*Module, error) {
	handler, err := NewHandler(webhookCfg, processor, statuses, val, log)
	if err != nil {
		return nil, err
	}

	m := &Module{
		handler:   handler,
		signature: SignatureMiddleware(webhookCfg.GetWebhookAppSecret(), log),
	}
	if limit := httpCfg.GetWebhookRateLimit(); limit > 0 {
		burst := httpCfg.GetWebhookRateBurst()
		if burst < 1 {
			burst = max(1, int(limit))
		}
		m.limiter = httpkit.NewIPRateLimiter(rate.Limit(limit), burst, log)
	}
	return m, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts webhook routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/webhook/whatsapp")
	group.GET("", m.handler.Verify)

	chain := make([]gin.HandlerFunc, 0, 3)
	if m.limiter != nil {
		chain = append(chain, m.limiter.RateLimit())
	}
	chain = append(chain, m.signature, m.handler.Receive)
	group.POST("", chain...)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
