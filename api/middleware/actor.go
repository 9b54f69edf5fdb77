package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-payouts/api/responses"
	pkgerrors "github.com/angelmondragon/packfinderz-payouts/pkg/errors"
	"github.com/angelmondragon/packfinderz-payouts/pkg/logger"
)

// ActorHeader carries the authenticated caller id set by the gateway.
const ActorHeader = "X-PF-Actor-Id"

type actorKey struct{}

// Actor requires a caller id on the request and seeds the context and the
// request logger with it.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := parseActor(r.Header.Get(ActorHeader))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			ctx := WithActorID(r.Context(), id.String())
			if logg != nil {
				ctx = logg.WithActorID(ctx, id.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseActor(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing actor")
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor")
	}
	return id, nil
}

// WithActorID stores the caller id on ctx.
func WithActorID(ctx context.Context, actorID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorIDFromContext returns the caller id set by Actor, or "".
func ActorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(actorKey{}).(string)
	return id
}

// ActorUUID returns the caller id as a UUID, failing with an unauthorized
// error when the request carries none.
func ActorUUID(ctx context.Context) (uuid.UUID, error) {
	return parseActor(ActorIDFromContext(ctx))
}
