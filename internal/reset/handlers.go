package reset

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cduffaut/crm-accounts/internal/validation"
)

// Handlers gère les requêtes HTTP du flux de réinitialisation
type Handlers struct {
	service *Service
}

// NewHandlers crée des nouveaux gestionnaires pour la réinitialisation
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// respondJSON écrit une réponse JSON avec le statut donné
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// resetErrorType mappe une erreur du flux vers un statut HTTP
// et un type d'erreur machine-lisible
func resetErrorType(err error) (int, string) {
	var vErr validation.ValidationError
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrInvalidCode):
		return http.StatusBadRequest, "invalid_code"
	case errors.Is(err, ErrExpiredCode):
		return http.StatusBadRequest, "expired_code"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}

// RequestHandler gère la demande d'un code de réinitialisation
func (h *Handlers) RequestHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "Format de requête invalide",
		})
		return
	}

	if err := h.service.Request(req.Email); err != nil {
		status, errType := resetErrorType(err)
		message := err.Error()
		if errors.Is(err, ErrUserNotFound) {
			message = "Aucun compte trouvé avec cette adresse email"
		}
		respondJSON(w, status, map[string]interface{}{
			"success":    false,
			"error":      message,
			"error_type": errType,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Un code de vérification a été envoyé à votre adresse email",
	})
}

// VerifyHandler contrôle un code sans le consommer
func (h *Handlers) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "Format de requête invalide",
		})
		return
	}

	if err := h.service.Verify(req.Email, req.Code); err != nil {
		status, errType := resetErrorType(err)
		message := err.Error()
		if errors.Is(err, ErrExpiredCode) {
			message = "Code expiré, veuillez demander un nouveau code"
		}
		respondJSON(w, status, map[string]interface{}{
			"success":    false,
			"error":      message,
			"error_type": errType,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Code vérifié avec succès",
	})
}

// ConfirmHandler applique le nouveau mot de passe
func (h *Handlers) ConfirmHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "Format de requête invalide",
		})
		return
	}

	if err := h.service.Confirm(req.Email, req.Code, req.NewPassword); err != nil {
		status, errType := resetErrorType(err)
		message := err.Error()
		if errors.Is(err, ErrExpiredCode) {
			message = "Code expiré, veuillez demander un nouveau code"
		}
		respondJSON(w, status, map[string]interface{}{
			"success":    false,
			"error":      message,
			"error_type": errType,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Mot de passe réinitialisé avec succès",
	})
}
