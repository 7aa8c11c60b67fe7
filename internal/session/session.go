// internal/session/session.go
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cduffaut/crm-accounts/internal/models"
)

// Session représente une session utilisateur
type Session struct {
	UserID    int
	Username  string
	ExpiresAt time.Time
}

// Manager gère les sessions utilisateur en mémoire
type Manager struct {
	CookieName string
	TTL        time.Duration

	mu       sync.RWMutex
	sessions map[string]Session
}

// NewManager crée un nouveau gestionnaire de session
func NewManager(cookieName string, ttl time.Duration) *Manager {
	return &Manager{
		CookieName: cookieName,
		TTL:        ttl,
		sessions:   make(map[string]Session),
	}
}

// CreateSession crée une nouvelle session pour un utilisateur
// et pose le cookie correspondant
func (m *Manager) CreateSession(w http.ResponseWriter, user *models.User) (string, error) {
	sessionToken, err := generateRandomToken(32)
	if err != nil {
		return "", fmt.Errorf("erreur lors de la génération du token de session: %w", err)
	}

	session := Session{
		UserID:    user.ID,
		Username:  user.Username,
		ExpiresAt: time.Now().Add(m.TTL),
	}

	m.mu.Lock()
	m.sessions[sessionToken] = session
	m.mu.Unlock()

	cookie := http.Cookie{
		Name:     m.CookieName,
		Value:    sessionToken,
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, &cookie)

	return sessionToken, nil
}

// GetSession récupère une session à partir d'une requête
func (m *Manager) GetSession(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.CookieName)
	if err != nil {
		return nil, fmt.Errorf("pas de session trouvée")
	}

	m.mu.RLock()
	session, exists := m.sessions[cookie.Value]
	m.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("session invalide")
	}

	// Vérifier si la session a expiré
	if time.Now().After(session.ExpiresAt) {
		m.mu.Lock()
		delete(m.sessions, cookie.Value)
		m.mu.Unlock()
		return nil, fmt.Errorf("session expirée")
	}

	return &session, nil
}

// DestroySession détruit une session et expire le cookie
func (m *Manager) DestroySession(w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(m.CookieName)
	if err != nil {
		return nil // Pas de session à détruire
	}

	m.mu.Lock()
	delete(m.sessions, cookie.Value)
	m.mu.Unlock()

	expiredCookie := http.Cookie{
		Name:     m.CookieName,
		Value:    "",
		Expires:  time.Now().Add(-1 * time.Hour),
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, &expiredCookie)

	return nil
}

// RotateSession détruit la session courante et en recrée une nouvelle
// pour le même utilisateur (après un changement de mot de passe)
func (m *Manager) RotateSession(w http.ResponseWriter, r *http.Request, user *models.User) (string, error) {
	if err := m.DestroySession(w, r); err != nil {
		return "", err
	}
	return m.CreateSession(w, user)
}

// Clé pour stocker la session dans le contexte
type sessionKeyType struct{}

var sessionKey = sessionKeyType{}

// WithSession ajoute une session au contexte
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// FromContext récupère la session du contexte
func FromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionKey).(*Session)
	return session, ok
}

// generateRandomToken génère un token aléatoire de la taille spécifiée
func generateRandomToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
