package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"goji.io/pat"

	"github.com/cduffaut/crm-accounts/internal/models"
	"github.com/cduffaut/crm-accounts/internal/session"
	"github.com/cduffaut/crm-accounts/internal/user"
	"github.com/cduffaut/crm-accounts/internal/validation"
)

// Handlers gère les requêtes HTTP de l'administration des comptes
type Handlers struct {
	service *Service
}

// NewHandlers crée des nouveaux gestionnaires pour l'administration
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// respondJSON écrit une réponse JSON avec le statut donné
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// principal recharge le compte associé à la session courante
func (h *Handlers) principal(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"success": false,
			"error":   "Authentification requise",
		})
		return nil, false
	}

	p, err := h.service.Principal(sess.UserID)
	if err != nil {
		respondJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"success": false,
			"error":   "Session invalide",
		})
		return nil, false
	}

	return p, true
}

// adminErrorType mappe une erreur d'administration vers un statut HTTP
// et un type d'erreur machine-lisible
func adminErrorType(err error) (int, string) {
	switch {
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, ErrSelfTarget):
		return http.StatusBadRequest, "self_target_forbidden"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}

// ListUsersHandler liste les comptes avec filtres optionnels
// (?search=, ?role=, ?is_active=)
func (h *Handlers) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	filters := user.ListFilters{
		Search: r.URL.Query().Get("search"),
		Role:   r.URL.Query().Get("role"),
	}
	if v := r.URL.Query().Get("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]interface{}{
				"success": false,
				"error":   "Paramètre is_active invalide",
			})
			return
		}
		filters.IsActive = &active
	}

	users, canManage, err := h.service.ListUsers(p, filters)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   "Erreur lors de la récupération des utilisateurs",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"users":      users,
		"count":      len(users),
		"can_manage": canManage,
	})
}

// GetUserDetailHandler retourne le profil complet d'un compte
func (h *Handlers) GetUserDetailHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	id, err := strconv.Atoi(pat.Param(r, "userID"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "ID utilisateur invalide",
		})
		return
	}

	detail, err := h.service.GetUserDetail(p, id)
	if err != nil {
		status, errType := adminErrorType(err)
		respondJSON(w, status, map[string]interface{}{
			"success":    false,
			"error":      err.Error(),
			"error_type": errType,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    detail,
	})
}

// CreateUserHandler crée un nouveau compte
func (h *Handlers) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "Format de requête invalide",
		})
		return
	}

	created, err := h.service.CreateUser(p, req)
	if err != nil {
		var vErrs validation.ValidationErrors
		if errors.As(err, &vErrs) {
			respondJSON(w, http.StatusBadRequest, map[string]interface{}{
				"success":    false,
				"error":      "Certains champs sont invalides",
				"error_type": "validation",
				"errors":     vErrs.ToMap(),
			})
			return
		}

		status, errType := adminErrorType(err)
		respondJSON(w, status, map[string]interface{}{
			"success":    false,
			"error":      err.Error(),
			"error_type": errType,
		})
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Utilisateur créé avec succès",
		"user":    created,
	})
}

// ToggleUserStatusHandler bascule le statut actif/inactif d'un compte
func (h *Handlers) ToggleUserStatusHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	id, err := strconv.Atoi(pat.Param(r, "userID"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "ID utilisateur invalide",
		})
		return
	}

	u, err := h.service.ToggleUserStatus(p, id)
	if err != nil {
		status, errType := adminErrorType(err)
		respondJSON(w, status, map[string]interface{}{
			"success":    false,
			"error":      err.Error(),
			"error_type": errType,
		})
		return
	}

	message := "Utilisateur désactivé avec succès"
	if u.IsActive {
		message = "Utilisateur activé avec succès"
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   message,
		"is_active": u.IsActive,
	})
}

// DeleteUserHandler supprime définitivement un compte
func (h *Handlers) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	id, err := strconv.Atoi(pat.Param(r, "userID"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "ID utilisateur invalide",
		})
		return
	}

	if err := h.service.DeleteUser(p, id); err != nil {
		status, errType := adminErrorType(err)
		respondJSON(w, status, map[string]interface{}{
			"success":    false,
			"error":      err.Error(),
			"error_type": errType,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Utilisateur supprimé avec succès",
	})
}
