package auth

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/cduffaut/crm-accounts/internal/models"
	"github.com/cduffaut/crm-accounts/internal/user"
	"github.com/cduffaut/crm-accounts/internal/validation"
)

// Erreurs d'authentification
var (
	ErrEmailNotFound      = errors.New("aucun compte trouvé avec cette adresse email")
	ErrWrongPassword      = errors.New("mot de passe incorrect")
	ErrInactiveAccount    = errors.New("ce compte est désactivé, contactez un administrateur")
	ErrOldPasswordInvalid = errors.New("l'ancien mot de passe est incorrect")
	ErrPasswordMismatch   = errors.New("les nouveaux mots de passe ne correspondent pas")
)

// minLoginPasswordLength est un pré-filtre avant la recherche en base,
// pas un contrôle de sécurité (le vrai minimum s'applique à la création)
const minLoginPasswordLength = 3

// Service d'authentification
type Service struct {
	userRepo user.Repository
	log      zerolog.Logger
}

// NewService crée un nouveau service d'authentification
func NewService(userRepo user.Repository, log zerolog.Logger) *Service {
	return &Service{
		userRepo: userRepo,
		log:      log,
	}
}

// LoginRequest data pour la connexion
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest data pour le changement de mot de passe
type ChangePasswordRequest struct {
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Profile est la projection publique d'un compte retournée aux clients
type Profile struct {
	ID        int         `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Role      models.Role `json:"role"`
	Phone     string      `json:"phone"`
}

// PublicProfile construit la projection publique d'un utilisateur
func PublicProfile(u *models.User) Profile {
	return Profile{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		Phone:     u.Phone,
	}
}

// Login authentifie un utilisateur par email + mot de passe
func (s *Service) Login(req LoginRequest) (*models.User, error) {
	if req.Email == "" {
		return nil, validation.ValidationError{Field: "email", Message: "l'adresse email est obligatoire"}
	}
	if req.Password == "" {
		return nil, validation.ValidationError{Field: "password", Message: "le mot de passe est obligatoire"}
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		return nil, err
	}
	if len(req.Password) < minLoginPasswordLength {
		return nil, validation.ValidationError{Field: "password", Message: "mot de passe trop court"}
	}

	u, err := s.userRepo.GetByEmailInsensitive(req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrEmailNotFound
		}
		return nil, fmt.Errorf("erreur lors de la recherche du compte: %w", err)
	}

	if !u.IsActive {
		return nil, ErrInactiveAccount
	}

	// Vérifier le mot de passe
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		return nil, ErrWrongPassword
	}

	// Les erreurs de last_login ne doivent pas bloquer la connexion
	if err := s.userRepo.UpdateLastLogin(u.ID); err != nil {
		s.log.Error().Err(err).Int("user_id", u.ID).Msg("mise à jour de last_login impossible")
	}

	return u, nil
}

// GetProfile retourne l'utilisateur associé au principal courant
func (s *Service) GetProfile(userID int) (*models.User, error) {
	return s.userRepo.GetByID(userID)
}

// ChangePassword vérifie l'ancien mot de passe puis enregistre le nouveau
// (hash + miroir en clair pour l'affichage admin)
func (s *Service) ChangePassword(userID int, req ChangePasswordRequest) (*models.User, error) {
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la récupération du compte: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.OldPassword)); err != nil {
		return nil, ErrOldPasswordInvalid
	}

	if req.NewPassword != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	if err := validation.ValidatePassword(req.NewPassword); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("erreur lors du hachage du mot de passe: %w", err)
	}

	if err := s.userRepo.UpdatePassword(u.ID, string(hashed), req.NewPassword); err != nil {
		return nil, fmt.Errorf("erreur lors de la mise à jour du mot de passe: %w", err)
	}

	return u, nil
}
