package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"property_service_backend/internal/conversation"
	"property_service_backend/internal/session"
	"property_service_backend/platform/apperr"
	"property_service_backend/platform/config"
	"property_service_backend/platform/httpkit"
	"property_service_backend/platform/logger"
	"property_service_backend/platform/metrics"
	"property_service_backend/platform/validator"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultDedupWindow = 1000

// Processor advances the conversation for one inbound message.
type Processor interface {
	Handle(ctx context.Context, msg conversation.Inbound) session.Session
}

// StatusUpdater applies delivery status callbacks to the outbound message log.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, providerMessageID, status string, at time.Time) (bool, error)
}

// Handler handles the messaging webhook.
type Handler struct {
	verifyToken string
	seen        *lru.Cache[string, struct{}]
	processor   Processor
	statuses    StatusUpdater
	val         *validator.Validator
	log         *logger.Logger
}

// NewHandler creates the webhook handler. statuses may be nil, in which case
// status callbacks are only logged.
func NewHandler(cfg config.WebhookConfig, processor Processor, statuses StatusUpdater, val *validator.Validator, log *logger.Logger) (*Handler, error) {
	capacity := cfg.GetDedupCapacity()
	if capacity < 1 {
		capacity = defaultDedupWindow
	}
	seen, err := lru.New[string, struct{}](capacity)
	if err != nil {
		return nil, err
	}

	return &Handler{
		verifyToken: cfg.GetWebhookVerifyToken(),
		seen:        seen,
		processor:   processor,
		statuses:    statuses,
		val:         val,
		log:         log,
	}, nil
}

// Verify answers the subscription handshake.
// GET /api/v1/webhook/whatsapp
func (h *Handler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "subscribe" || h.verifyToken == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(h.verifyToken)) != 1 {
		h.log.Warn("webhook verification rejected", "mode", mode, "clientIp", c.ClientIP())
		c.String(http.StatusForbidden, "forbidden")
		return
	}

	h.log.Info("webhook verified")
	c.String(http.StatusOK, challenge)
}

// Receive accepts a batch of messages and status callbacks.
// POST /api/v1/webhook/whatsapp
func (h *Handler) Receive(c *gin.Context) {
	body, err := requestBody(c)
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("unreadable body"))
		return
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid payload"))
		return
	}

	// Dispatch is not tied to the provider's connection.
	ctx := context.WithoutCancel(c.Request.Context())
	h.process(ctx, payload)

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

func (h *Handler) process(ctx context.Context, payload Payload) {
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				h.handleMessage(ctx, msg)
			}
			for _, status := range change.Value.Statuses {
				h.handleStatus(ctx, status)
			}
		}
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg Message) {
	if err := h.val.Struct(msg); err != nil {
		h.log.Warn("skipping invalid inbound message", "messageId", msg.ID, "error", err)
		return
	}

	// ContainsOrAdd marks the key in the same step that checks it.
	if seen, _ := h.seen.ContainsOrAdd(msg.From+":"+msg.ID, struct{}{}); seen {
		metrics.Get().DuplicatesDropped.Inc()
		h.log.Debug("dropping redelivered message", "sender", msg.From, "messageId", msg.ID)
		return
	}

	in, kind := toInbound(msg)
	metrics.Get().InboundMessagesTotal.WithLabelValues(kind).Inc()
	if kind == kindUnsupported {
		h.log.Info("unsupported message type treated as empty text", "sender", msg.From, "type", msg.Type)
	}

	h.processor.Handle(ctx, in)
}

func (h *Handler) handleStatus(ctx context.Context, status Status) {
	if err := h.val.Struct(status); err != nil {
		metrics.Get().StatusCallbacksTotal.WithLabelValues("invalid").Inc()
		h.log.Warn("skipping invalid status callback", "error", err)
		return
	}
	if len(status.Errors) > 0 {
		h.log.Warn("outbound message reported errors",
			"providerMessageId", status.ID,
			"status", status.Status,
			"code", status.Errors[0].Code,
			"title", status.Errors[0].Title,
		)
	}
	if h.statuses == nil {
		metrics.Get().StatusCallbacksTotal.WithLabelValues("unmatched").Inc()
		return
	}

	matched, err := h.statuses.UpdateStatus(ctx, status.ID, status.Status, parseTimestamp(status.Timestamp))
	switch {
	case err != nil:
		metrics.Get().StatusCallbacksTotal.WithLabelValues("error").Inc()
		h.log.DatabaseError("update outbound message status", err)
	case !matched:
		metrics.Get().StatusCallbacksTotal.WithLabelValues("unmatched").Inc()
		h.log.Debug("status callback for unknown message", "providerMessageId", status.ID, "status", status.Status)
	default:
		metrics.Get().StatusCallbacksTotal.WithLabelValues("updated").Inc()
	}
}

const (
	kindText        = "text"
	kindSelection   = "selection"
	kindUnsupported = "unsupported"
)

// toInbound maps a provider message onto the conversation input. Types the
// conversation cannot read become empty text so the current prompt is re-sent.
func toInbound(msg Message) (conversation.Inbound, string) {
	in := conversation.Inbound{Sender: msg.From, MessageID: msg.ID}

	switch msg.Type {
	case "text":
		if msg.Text != nil {
			in.Text = msg.Text.Body
		}
		return in, kindText
	case "interactive":
		if r := msg.Interactive.reply(); r != nil && r.ID != "" {
			in.SelectionID = r.ID
			in.SelectionTitle = r.Title
			return in, kindSelection
		}
	case "button":
		if b := msg.Button; b != nil {
			if b.Payload != "" {
				in.SelectionID = b.Payload
				in.SelectionTitle = b.Text
				return in, kindSelection
			}
			in.Text = b.Text
			return in, kindText
		}
	}
	return in, kindUnsupported
}

// parseTimestamp reads unix seconds; a missing or malformed value yields the zero time.
func parseTimestamp(raw string) time.Time {
	secs, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}
