package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"

	"github.com/angelmondragon/packfinderz-payouts/api/responses"
)

// CORS allows browser calls from origins. Blank entries are dropped. A "*"
// entry opens every origin and disables credentials, which browsers refuse
// to combine with a wildcard.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed := make([]string, 0, len(origins))
	wildcard := false
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch o {
		case "":
			continue
		case "*":
			wildcard = true
		}
		allowed = append(allowed, o)
	}
	if wildcard {
		allowed = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Requested-With",
			ActorHeader,
			idempotencyHeader,
			responses.RequestIDHeader,
		},
		ExposedHeaders:   []string{responses.RequestIDHeader, idempotentReplayedHeader},
		AllowCredentials: !wildcard,
		MaxAge:           300,
	}).Handler
}
