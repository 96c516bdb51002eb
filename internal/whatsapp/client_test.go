package whatsapp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"property_service_backend/platform/apperr"
	"property_service_backend/platform/logger"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	url string
}

func (c testConfig) GetWhatsAppURL() string            { return c.url }
func (c testConfig) GetWhatsAppPhoneNumberID() string  { return "1234" }
func (c testConfig) GetWhatsAppAccessToken() string    { return "token" }
func (c testConfig) GetWhatsAppTimeout() time.Duration { return time.Second }
func (c testConfig) GetPhoneDefaultRegion() string     { return "SA" }
func (c testConfig) GetDemoPhone() string              { return "" }

func newTestServer(t *testing.T, status int, response string, captured *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/1234/messages", r.URL.Path)
		require.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		if captured != nil {
			require.NoError(t, json.Unmarshal(body, captured))
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSendTextReturnsProviderID(t *testing.T) {
	var got map[string]any
	srv := newTestServer(t, http.StatusOK, `{"messages":[{"id":"wamid.1"}]}`, &got)
	client := NewClient(testConfig{url: srv.URL}, logger.Nop())

	id, err := client.SendText(context.Background(), "0501234567", "hello")
	require.NoError(t, err)
	require.Equal(t, "wamid.1", id)
	require.Equal(t, "966501234567", got["to"])
	require.Equal(t, "text", got["type"])
}

func TestSendInteractiveUsesButtonsForShortMenus(t *testing.T) {
	var got map[string]any
	srv := newTestServer(t, http.StatusOK, `{"messages":[{"id":"wamid.2"}]}`, &got)
	client := NewClient(testConfig{url: srv.URL}, logger.Nop())

	_, err := client.SendInteractive(context.Background(), "966501234567", Interactive{
		Body:    "Choose a language",
		Options: []Option{{ID: "lang_en", Title: "English"}, {ID: "lang_ar", Title: "العربية"}},
	})
	require.NoError(t, err)

	interactive := got["interactive"].(map[string]any)
	require.Equal(t, "button", interactive["type"])
	buttons := interactive["action"].(map[string]any)["buttons"].([]any)
	require.Len(t, buttons, 2)
}

func TestSendInteractiveUsesListForLongMenus(t *testing.T) {
	var got map[string]any
	srv := newTestServer(t, http.StatusOK, `{"messages":[{"id":"wamid.3"}]}`, &got)
	client := NewClient(testConfig{url: srv.URL}, logger.Nop())

	opts := make([]Option, 0, 5)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		opts = append(opts, Option{ID: id, Title: strings.ToUpper(id)})
	}
	_, err := client.SendInteractive(context.Background(), "966501234567", Interactive{Body: "Pick", ButtonLabel: "Menu", Options: opts})
	require.NoError(t, err)

	interactive := got["interactive"].(map[string]any)
	require.Equal(t, "list", interactive["type"])
}

func TestSendInteractiveRejectsOversizedMenus(t *testing.T) {
	client := NewClient(testConfig{url: "http://127.0.0.1:1"}, logger.Nop())
	opts := make([]Option, MaxListRows+1)
	_, err := client.SendInteractive(context.Background(), "966501234567", Interactive{Body: "x", Options: opts})
	require.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestSendMapsGatewayErrorsToUnavailable(t *testing.T) {
	srv := newTestServer(t, http.StatusBadRequest, `{"error":{"message":"invalid parameter","code":100}}`, nil)
	client := NewClient(testConfig{url: srv.URL}, logger.Nop())

	_, err := client.SendText(context.Background(), "966501234567", "hi")
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.KindUnavailable))
}

func TestNilClientIsNotConfigured(t *testing.T) {
	var client *Client
	_, err := client.SendText(context.Background(), "1", "x")
	require.ErrorIs(t, err, ErrNotConfigured)
	require.Nil(t, NewClient(testConfig{}, logger.Nop()))
}

func TestPlainTextNumbersOptions(t *testing.T) {
	menu := Interactive{Body: "Main menu", Footer: "Reply with a number", Options: []Option{{ID: "a", Title: "Maintenance"}, {ID: "b", Title: "Complaint"}}}
	require.Equal(t, "Main menu\n\n1. Maintenance\n2. Complaint\n\nReply with a number", menu.PlainText())
}
