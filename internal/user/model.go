package user

import (
	"errors"

	"github.com/cduffaut/crm-accounts/internal/models"
)

// ErrNotFound est retourné quand aucun enregistrement ne correspond
var ErrNotFound = errors.New("enregistrement non trouvé")

// ListFilters décrit les filtres optionnels de la liste des comptes
type ListFilters struct {
	// Search filtre par sous-chaîne (insensible à la casse) sur
	// prénom, nom, email ou nom d'utilisateur
	Search string
	// Role filtre par rôle exact ("" = tous)
	Role string
	// IsActive filtre par statut exact (nil = tous)
	IsActive *bool
}

// Repository interface pour accéder aux données utilisateur
type Repository interface {
	Create(user *models.User) error
	GetByID(id int) (*models.User, error)
	GetByEmailInsensitive(email string) (*models.User, error)
	List(filters ListFilters) ([]*models.User, error)
	UsernameExists(username string) (bool, error)
	EmailExists(email string) (bool, error)
	UpdatePassword(id int, hash, plain string) error
	UpdateRole(id int, role models.Role) error
	UpdateLastLogin(id int) error
	SetActive(id int, active bool) error
	Delete(id int) error
}

// CodeRepository interface pour accéder aux codes de réinitialisation
type CodeRepository interface {
	Create(code *models.PasswordResetCode) error
	// InvalidateForUser marque utilisés tous les codes non utilisés du compte
	InvalidateForUser(userID int) error
	// GetLatestUnused retourne le code non utilisé le plus récent
	// correspondant à l'email (insensible à la casse) et au code exact
	GetLatestUnused(email, code string) (*models.PasswordResetCode, error)
	MarkUsed(id int) error
}
