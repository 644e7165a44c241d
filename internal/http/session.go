package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"orca/internal/api"
	"orca/internal/log"
	"orca/internal/state"
)

// SessionCookie names the cookie that selects a browser's workspace.
const SessionCookie = "orca_session"

type sessionKey struct{}

// sessionMiddleware issues a session id when the cookie is missing or not a
// UUID and stores the id, plus the request id, in the context.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := ""
		if c, err := r.Cookie(SessionCookie); err == nil {
			if id, err := uuid.Parse(c.Value); err == nil {
				session = id.String()
			}
		}
		if session == "" {
			session = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    session,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.opts.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, session)
		ctx = api.WithSession(ctx, session)
		ctx = api.WithRequestID(ctx, middleware.GetReqID(ctx))
		ctx = log.WithLogger(ctx, log.FromContext(ctx).With(log.FieldSessionID, session))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) string {
	id, _ := r.Context().Value(sessionKey{}).(string)
	return id
}

// workspace returns the state of the requesting session.
func (s *Server) workspace(r *http.Request) *state.Workspace {
	return s.deps.Registry.Get(sessionFrom(r))
}
