package middleware

import (
	"net/http"

	"github.com/cduffaut/crm-accounts/internal/session"
)

// AuthMiddleware est un middleware pour vérifier l'authentification des utilisateurs
type AuthMiddleware struct {
	sessionManager *session.Manager
}

// NewAuthMiddleware crée un nouveau middleware d'authentification
func NewAuthMiddleware(sessionManager *session.Manager) *AuthMiddleware {
	return &AuthMiddleware{
		sessionManager: sessionManager,
	}
}

// RequireAuth vérifie que la requête porte une session valide et
// place la session dans le contexte
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userSession, err := m.sessionManager.GetSession(r)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"success": false, "error": "Authentification requise"}`))
			return
		}

		ctx := session.WithSession(r.Context(), userSession)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
