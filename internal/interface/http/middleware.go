package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type ctxKey struct{}

var (
	ctxSessionKey      = ctxKey{}
	errUnauthenticated = errors.New("unauthenticated")
)

type authSession struct {
	SessionID string
	DeviceID  string
}

// authMiddleware accepts a bearer token, or an access_token query parameter
// for clients such as EventSource that cannot set headers.
func (a *API) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("access_token")
		if authHeader := r.Header.Get("Authorization"); authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") {
				respondError(w, http.StatusUnauthorized, errUnauthenticated)
				return
			}
			token = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		}

		claims, err := a.authSvc.Authenticate(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, errUnauthenticated)
			return
		}

		ctx := context.WithValue(r.Context(), ctxSessionKey, &authSession{
			SessionID: claims.SessionID,
			DeviceID:  claims.DeviceID,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getAuthSession(ctx context.Context) *authSession {
	val := ctx.Value(ctxSessionKey)
	if s, ok := val.(*authSession); ok {
		return s
	}
	return nil
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimw.GetReqID(r.Context())),
				zap.String("remote", r.RemoteAddr),
			}
			switch {
			case ww.Status() >= http.StatusInternalServerError:
				a.log.Error("request", fields...)
			case ww.Status() >= http.StatusBadRequest:
				a.log.Warn("request", fields...)
			default:
				a.log.Info("request", fields...)
			}
		}()

		next.ServeHTTP(ww, r)
	})
}
