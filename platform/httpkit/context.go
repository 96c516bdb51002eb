package httpkit

import (
	"context"

	"property_service_backend/platform/logger"
)

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, logger.RequestIDKey, id)
}
