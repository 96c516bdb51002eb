package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"

	"property_service_backend/platform/apperr"
	"property_service_backend/platform/httpkit"
	"property_service_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

const (
	signatureHeader = "X-Hub-Signature-256"
	signaturePrefix = "sha256="
	maxBodyBytes    = 1 << 20

	// bodyContextKey holds the raw request body read by SignatureMiddleware.
	bodyContextKey = "webhookBody"
)

// SignatureMiddleware buffers the request body into the gin context and,
// when secret is non-empty, rejects requests whose X-Hub-Signature-256
// header is not the HMAC-SHA256 of that body.
func SignatureMiddleware(secret string, log *logger.Logger) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
		if err != nil {
			httpkit.HandleError(c, apperr.BadRequest("unreadable body"))
			return
		}

		if len(key) > 0 && !validSignature(key, c.GetHeader(signatureHeader), body) {
			log.Warn("webhook signature mismatch", "clientIp", c.ClientIP())
			httpkit.HandleError(c, apperr.Unauthorized("invalid signature"))
			return
		}

		c.Set(bodyContextKey, body)
		c.Next()
	}
}

func validSignature(key []byte, header string, body []byte) bool {
	if !strings.HasPrefix(header, signaturePrefix) {
		return false
	}
	got, err := hex.DecodeString(strings.TrimPrefix(header, signaturePrefix))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// requestBody returns the body buffered by SignatureMiddleware, reading it
// directly when the middleware is not installed.
func requestBody(c *gin.Context) ([]byte, error) {
	if v, ok := c.Get(bodyContextKey); ok {
		if body, ok := v.([]byte); ok {
			return body, nil
		}
	}
	return io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
}
