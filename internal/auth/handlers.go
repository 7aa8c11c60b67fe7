package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cduffaut/crm-accounts/internal/session"
	"github.com/cduffaut/crm-accounts/internal/validation"
)

// Handlers gère les requêtes HTTP pour l'authentification
type Handlers struct {
	service        *Service
	sessionManager *session.Manager
}

// NewHandlers crée des nouveaux gestionnaires pour l'authentification
func NewHandlers(service *Service, sessionManager *session.Manager) *Handlers {
	return &Handlers{
		service:        service,
		sessionManager: sessionManager,
	}
}

// respondJSON écrit une réponse JSON avec le statut donné
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// LoginHandler gère la connexion
func (h *Handlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "Format de requête invalide",
		})
		return
	}

	u, err := h.service.Login(req)
	if err != nil {
		status, errType := loginErrorType(err)
		respondJSON(w, status, map[string]interface{}{
			"success":    false,
			"error":      err.Error(),
			"error_type": errType,
		})
		return
	}

	if _, err := h.sessionManager.CreateSession(w, u); err != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   "Erreur lors de la création de la session",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Connexion réussie",
		"user":    PublicProfile(u),
	})
}

// loginErrorType mappe une erreur de connexion vers un statut HTTP
// et un type d'erreur machine-lisible
func loginErrorType(err error) (int, string) {
	var vErr validation.ValidationError
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, ErrEmailNotFound):
		return http.StatusUnauthorized, "not_found"
	case errors.Is(err, ErrWrongPassword):
		return http.StatusUnauthorized, "wrong_password"
	case errors.Is(err, ErrInactiveAccount):
		return http.StatusForbidden, "inactive_account"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}

// LogoutHandler gère la déconnexion
func (h *Handlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionManager.DestroySession(w, r); err != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   "Erreur lors de la déconnexion",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Déconnexion réussie",
	})
}

// MeHandler retourne le profil de l'utilisateur connecté
func (h *Handlers) MeHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"success": false,
			"error":   "Authentification requise",
		})
		return
	}

	u, err := h.service.GetProfile(sess.UserID)
	if err != nil {
		respondJSON(w, http.StatusNotFound, map[string]interface{}{
			"success":    false,
			"error":      "Compte introuvable",
			"error_type": "not_found",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"user":           PublicProfile(u),
		"email_verified": u.EmailVerified,
		"created_at":     u.CreatedAt,
	})
}

// ChangePasswordHandler gère le changement de mot de passe
func (h *Handlers) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"success": false,
			"error":   "Authentification requise",
		})
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "Format de requête invalide",
		})
		return
	}

	u, err := h.service.ChangePassword(sess.UserID, req)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	// Rotation de session après changement de mot de passe
	if _, err := h.sessionManager.RotateSession(w, r, u); err != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   "Erreur lors du renouvellement de la session",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Mot de passe modifié avec succès",
	})
}
