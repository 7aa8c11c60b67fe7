package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
)

// CSRFHeader est l'en-tête attendu sur les requêtes modifiantes
const CSRFHeader = "X-CSRF-Token"

// CSRFMiddleware implémente une protection par double soumission de cookie:
// le front lit le cookie (non HttpOnly) et renvoie sa valeur dans l'en-tête
// X-CSRF-Token sur chaque requête modifiante
type CSRFMiddleware struct {
	CookieName string
}

// NewCSRFMiddleware crée un nouveau middleware CSRF
func NewCSRFMiddleware(cookieName string) *CSRFMiddleware {
	return &CSRFMiddleware{CookieName: cookieName}
}

// Protect pose le cookie anti-CSRF s'il est absent et vérifie
// le token sur les requêtes modifiantes
func (m *CSRFMiddleware) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(m.CookieName)
		if err != nil {
			token, genErr := generateToken()
			if genErr != nil {
				http.Error(w, "Erreur interne", http.StatusInternalServerError)
				return
			}
			cookie = &http.Cookie{
				Name:     m.CookieName,
				Value:    token,
				Path:     "/",
				HttpOnly: false, // le front doit pouvoir le lire
				SameSite: http.SameSiteLaxMode,
			}
			http.SetCookie(w, cookie)
		}

		if isModifyingRequest(r) {
			header := r.Header.Get(CSRFHeader)
			if header == "" || subtle.ConstantTimeCompare([]byte(header), []byte(cookie.Value)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"success": false, "error": "Token CSRF invalide ou manquant"}`))
				return
			}
		}

		// En-têtes de sécurité
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")

		next.ServeHTTP(w, r)
	})
}

// isModifyingRequest vérifie si c'est une requête qui modifie des données
func isModifyingRequest(r *http.Request) bool {
	return r.Method == "POST" || r.Method == "PUT" || r.Method == "DELETE" || r.Method == "PATCH"
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
