package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/angelmondragon/packfinderz-payouts/api/responses"
	pkgerrors "github.com/angelmondragon/packfinderz-payouts/pkg/errors"
	"github.com/angelmondragon/packfinderz-payouts/pkg/logger"
)

// Recoverer turns a handler panic into a 500 envelope. When the handler had
// already started the response only the log line is written.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := wrapWriter(w)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if recErr, ok := rec.(error); ok && errors.Is(recErr, http.ErrAbortHandler) {
					panic(rec)
				}
				err := pkgerrors.Wrap(pkgerrors.CodeInternal, fmt.Errorf("panic: %v", rec), "handler panicked")
				if sw.wroteHeader() {
					if logg != nil {
						logg.Error(logg.WithField(r.Context(), "status", sw.Status()), "panic after response started", err)
					}
					return
				}
				responses.WriteError(r.Context(), logg, sw, err)
			}()
			next.ServeHTTP(sw, r)
		})
	}
}
