package adapthttp

import (
	"context"
	"net/http"
	"time"

	"florist/internal/app"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const shopSessionKey contextKey = "shop-session"

const (
	sidCookie     = "sid"
	sessionCookie = "session"
	sidMaxAge     = 30 * 24 * 60 * 60
	sessionMaxAge = 24 * 60 * 60
)

// loggingMiddleware writes one structured line per request.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}

// sessionMiddleware attaches the storefront session named by the sid cookie,
// issuing a new id when the cookie is missing or malformed. A session cookie
// is resumed into the identity provider so that a returning customer stays
// signed in.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := ""
		if c, err := r.Cookie(sidCookie); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				sid = c.Value
			}
		}
		if sid == "" {
			sid = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sidCookie,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   sidMaxAge,
			})
		}

		sess, err := s.shop.Open(r.Context(), sid)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}

		if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" && s.authSvc.Token(sid) != c.Value {
			if _, err := s.authSvc.Resume(r.Context(), sid, c.Value); err != nil {
				clearSessionCookie(w)
			}
		}

		ctx := context.WithValue(r.Context(), shopSessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func shopSessionFrom(ctx context.Context) *app.ShopSession {
	sess, _ := ctx.Value(shopSessionKey).(*app.ShopSession)
	return sess
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   sessionMaxAge,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
