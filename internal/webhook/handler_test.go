package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"property_service_backend/internal/conversation"
	apphttp "property_service_backend/internal/http"
	"property_service_backend/internal/session"
	"property_service_backend/internal/whatsapp"
	"property_service_backend/platform/logger"
	"property_service_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testConfig struct {
	secret string
}

func (c testConfig) GetWebhookVerifyToken() string { return "verify-me" }
func (c testConfig) GetWebhookAppSecret() string   { return c.secret }
func (c testConfig) GetDedupCapacity() int         { return 1000 }
func (c testConfig) GetHTTPAddr() string           { return ":0" }
func (c testConfig) GetWebhookRateLimit() float64  { return 0 }
func (c testConfig) GetWebhookRateBurst() int      { return 0 }

type recordingProcessor struct {
	mu       sync.Mutex
	received []conversation.Inbound
}

func (p *recordingProcessor) Handle(_ context.Context, msg conversation.Inbound) session.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.received = append(p.received, msg)
	return session.Session{SenderKey: msg.Sender}
}

type statusLog struct {
	mu      sync.Mutex
	entries map[string]string
	at      map[string]time.Time
}

func newStatusLog(ids ...string) *statusLog {
	l := &statusLog{entries: map[string]string{}, at: map[string]time.Time{}}
	for _, id := range ids {
		l.entries[id] = "sent"
	}
	return l
}

func (l *statusLog) UpdateStatus(_ context.Context, id, status string, at time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[id]; !ok {
		return false, nil
	}
	l.entries[id] = status
	l.at[id] = at
	return true, nil
}

func newEngine(t *testing.T, cfg testConfig, processor Processor, statuses StatusUpdater) *gin.Engine {
	t.Helper()
	module, err := NewModule(cfg, cfg, processor, statuses, validator.New(), logger.Nop())
	require.NoError(t, err)

	engine := gin.New()
	module.RegisterRoutes(&apphttp.RouterContext{Engine: engine, V1: engine.Group("/api/v1"), Logger: logger.Nop()})
	return engine
}

func post(engine *gin.Engine, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/whatsapp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func batch(messages string) string {
	return `{"object":"whatsapp_business_account","entry":[{"id":"1","changes":[{"field":"messages","value":{"messaging_product":"whatsapp","messages":[` + messages + `]}}]}]}`
}

const textMessage = `{"from":"966501234567","id":"wamid.A","timestamp":"1767225600","type":"text","text":{"body":"hello"}}`

func TestVerifyEchoesChallenge(t *testing.T) {
	engine := newEngine(t, testConfig{}, &recordingProcessor{}, nil)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/webhook/whatsapp?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "12345", rec.Body.String())
	require.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}

func TestVerifyRejectsBadRequests(t *testing.T) {
	engine := newEngine(t, testConfig{}, &recordingProcessor{}, nil)

	for _, query := range []string{
		"hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=1",
		"hub.mode=unsubscribe&hub.verify_token=verify-me&hub.challenge=1",
		"hub.challenge=1",
	} {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/webhook/whatsapp?"+query, nil))
		require.Equal(t, http.StatusForbidden, rec.Code, query)
	}
}

func TestReceiveRejectsMalformedBody(t *testing.T) {
	processor := &recordingProcessor{}
	engine := newEngine(t, testConfig{}, processor, nil)

	rec := post(engine, `{"entry": [`, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"invalid payload"}`, rec.Body.String())
	require.Empty(t, processor.received)
}

func TestReceiveDispatchesByMessageType(t *testing.T) {
	processor := &recordingProcessor{}
	engine := newEngine(t, testConfig{}, processor, nil)

	rec := post(engine, batch(strings.Join([]string{
		textMessage,
		`{"from":"966501234567","id":"wamid.B","type":"interactive","interactive":{"type":"button_reply","button_reply":{"id":"lang_en","title":"English"}}}`,
		`{"from":"966501234567","id":"wamid.C","type":"interactive","interactive":{"type":"list_reply","list_reply":{"id":"maint_plumbing","title":"Plumbing"}}}`,
		`{"from":"966501234567","id":"wamid.D","type":"button","button":{"payload":"main_menu","text":"Menu"}}`,
		`{"from":"966501234567","id":"wamid.E","type":"image","image":{"id":"media-1"}}`,
	}, ",")), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"received"}`, rec.Body.String())
	require.Equal(t, []conversation.Inbound{
		{Sender: "966501234567", MessageID: "wamid.A", Text: "hello"},
		{Sender: "966501234567", MessageID: "wamid.B", SelectionID: "lang_en", SelectionTitle: "English"},
		{Sender: "966501234567", MessageID: "wamid.C", SelectionID: "maint_plumbing", SelectionTitle: "Plumbing"},
		{Sender: "966501234567", MessageID: "wamid.D", SelectionID: "main_menu", SelectionTitle: "Menu"},
		{Sender: "966501234567", MessageID: "wamid.E"},
	}, processor.received)
}

func TestReceiveSkipsInvalidMessages(t *testing.T) {
	processor := &recordingProcessor{}
	engine := newEngine(t, testConfig{}, processor, nil)

	rec := post(engine, batch(`{"id":"wamid.X","type":"text","text":{"body":"no sender"}},`+textMessage), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, processor.received, 1)
	require.Equal(t, "wamid.A", processor.received[0].MessageID)
}

func TestRedeliveryIsDropped(t *testing.T) {
	processor := &recordingProcessor{}
	engine := newEngine(t, testConfig{}, processor, nil)

	require.Equal(t, http.StatusOK, post(engine, batch(textMessage), nil).Code)
	require.Equal(t, http.StatusOK, post(engine, batch(textMessage), nil).Code)
	require.Len(t, processor.received, 1)

	// the same message id from another sender is a different message
	other := strings.Replace(textMessage, "966501234567", "966509999999", 1)
	post(engine, batch(other), nil)
	require.Len(t, processor.received, 2)
}

type countingMessenger struct {
	mu    sync.Mutex
	sends int
}

func (m *countingMessenger) SendText(context.Context, string, string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends++
	return "wamid.out", nil
}

func (m *countingMessenger) SendInteractive(context.Context, string, whatsapp.Interactive) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends++
	return "wamid.out", nil
}

func TestRedeliveryProducesOneReply(t *testing.T) {
	store := session.NewStore(nil, logger.Nop())
	messenger := &countingMessenger{}
	conv := conversation.NewEngine(conversation.Deps{
		Sessions:  store,
		Messenger: messenger,
		Logger:    logger.Nop(),
	})
	engine := newEngine(t, testConfig{}, conv, nil)

	post(engine, batch(textMessage), nil)
	post(engine, batch(textMessage), nil)

	require.Equal(t, 1, messenger.sends)
	sess, ok := store.Get("966501234567")
	require.True(t, ok)
	require.Equal(t, session.StateAwaitingLanguage, sess.State)
}

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestSignatureRequiredWhenSecretConfigured(t *testing.T) {
	processor := &recordingProcessor{}
	engine := newEngine(t, testConfig{secret: "app-secret"}, processor, nil)
	body := batch(textMessage)

	unsigned := post(engine, body, nil)
	require.Equal(t, http.StatusUnauthorized, unsigned.Code)
	require.JSONEq(t, `{"error":"invalid signature"}`, unsigned.Body.String())
	require.Equal(t, http.StatusUnauthorized, post(engine, body, map[string]string{signatureHeader: sign("other", body)}).Code)
	require.Equal(t, http.StatusUnauthorized, post(engine, body, map[string]string{signatureHeader: "sha256=zz"}).Code)
	require.Empty(t, processor.received)

	require.Equal(t, http.StatusOK, post(engine, body, map[string]string{signatureHeader: sign("app-secret", body)}).Code)
	require.Len(t, processor.received, 1)
}

func TestSignatureMiddlewareBuffersBody(t *testing.T) {
	body := batch(textMessage)
	var seen []byte

	engine := gin.New()
	engine.POST("/", SignatureMiddleware("app-secret", logger.Nop()), func(c *gin.Context) {
		got, err := requestBody(c)
		require.NoError(t, err)
		seen = got
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(signatureHeader, sign("app-secret", body))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, body, string(seen))
}

func TestDefaultConfigDoesNotRateLimitDeliveries(t *testing.T) {
	processor := &recordingProcessor{}
	engine := newEngine(t, testConfig{}, processor, nil)

	for i := 0; i < 60; i++ {
		msg := strings.Replace(textMessage, "wamid.A", "wamid.burst"+strconv.Itoa(i), 1)
		require.Equal(t, http.StatusOK, post(engine, batch(msg), nil).Code)
	}
	require.Len(t, processor.received, 60)
}

func TestRateLimitAppliesWhenConfigured(t *testing.T) {
	cfg := limitedConfig{testConfig: testConfig{}, limit: 0.001, burst: 1}
	module, err := NewModule(cfg, cfg, &recordingProcessor{}, nil, validator.New(), logger.Nop())
	require.NoError(t, err)
	engine := gin.New()
	module.RegisterRoutes(&apphttp.RouterContext{Engine: engine, V1: engine.Group("/api/v1"), Logger: logger.Nop()})

	require.Equal(t, http.StatusOK, post(engine, batch(textMessage), nil).Code)
	require.Equal(t, http.StatusTooManyRequests, post(engine, batch(textMessage), nil).Code)
}

type limitedConfig struct {
	testConfig
	limit float64
	burst int
}

func (c limitedConfig) GetWebhookRateLimit() float64 { return c.limit }
func (c limitedConfig) GetWebhookRateBurst() int     { return c.burst }

func TestStatusCallbacksUpdateMatchingEntries(t *testing.T) {
	statuses := newStatusLog("X")
	engine := newEngine(t, testConfig{}, &recordingProcessor{}, statuses)

	body := `{"object":"whatsapp_business_account","entry":[{"id":"1","changes":[{"field":"messages","value":{"statuses":[
		{"id":"X","status":"delivered","timestamp":"1767225600","recipient_id":"966501234567"},
		{"id":"nope","status":"read","timestamp":"1767225601"},
		{"status":"failed"}
	]}}]}]}`
	rec := post(engine, body, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "delivered", statuses.entries["X"])
	require.Equal(t, time.Unix(1767225600, 0).UTC(), statuses.at["X"])
	require.NotContains(t, statuses.entries, "nope")
}

func TestParseTimestamp(t *testing.T) {
	require.True(t, parseTimestamp("").IsZero())
	require.True(t, parseTimestamp("yesterday").IsZero())
	require.Equal(t, int64(1767225600), parseTimestamp(" 1767225600 ").Unix())
}
