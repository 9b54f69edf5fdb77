package logger

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	FieldRequestID = "request_id"
	FieldActorID   = "actor_id"
	FieldOrderID   = "order_id"
	FieldSellerID  = "seller_id"
	FieldBuyerID   = "buyer_id"
)

const redacted = "[REDACTED]"

// sensitiveKeys never reach the log output with their real value.
var sensitiveKeys = map[string]struct{}{
	"confirmation_code": {},
	"confirmationcode":  {},
	"authorization":     {},
	"password":          {},
}

func isSensitive(key string) bool {
	_, ok := sensitiveKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

func field(c zerolog.Context, key string, value any) zerolog.Context {
	if isSensitive(key) {
		return c.Str(key, redacted)
	}
	switch v := value.(type) {
	case string:
		return c.Str(key, v)
	case uuid.UUID:
		return c.Str(key, v.String())
	case int64:
		return c.Int64(key, v)
	case int:
		return c.Int(key, v)
	case bool:
		return c.Bool(key, v)
	case error:
		return c.Str(key, v.Error())
	case fmt.Stringer:
		return c.Stringer(key, v)
	default:
		return c.Interface(key, v)
	}
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.WithField(ctx, FieldRequestID, requestID)
}

func (l *Logger) WithActorID(ctx context.Context, actorID string) context.Context {
	return l.WithField(ctx, FieldActorID, actorID)
}

func (l *Logger) WithOrderID(ctx context.Context, orderID uuid.UUID) context.Context {
	return l.WithField(ctx, FieldOrderID, orderID)
}

func (l *Logger) WithSellerID(ctx context.Context, sellerID uuid.UUID) context.Context {
	return l.WithField(ctx, FieldSellerID, sellerID)
}

func (l *Logger) WithBuyerID(ctx context.Context, buyerID uuid.UUID) context.Context {
	return l.WithField(ctx, FieldBuyerID, buyerID)
}
