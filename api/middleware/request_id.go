package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/cakehouse/storefront/pkg/logger"
	"github.com/cakehouse/storefront/pkg/types"
)

const (
	RequestIDHeader    = types.RequestIDHeader
	maxRequestIDLength = 128
)

// RequestID echoes a caller supplied request id, or mints one, and attaches it
// to the logging context. Ids that are overlong or contain non-printable
// characters are replaced.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if !usableRequestID(reqID) {
				reqID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func usableRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
