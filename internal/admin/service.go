package admin

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/cduffaut/crm-accounts/internal/models"
	"github.com/cduffaut/crm-accounts/internal/user"
	"github.com/cduffaut/crm-accounts/internal/validation"
)

// Erreurs de l'administration des comptes
var (
	ErrForbidden  = errors.New("accès réservé au super administrateur")
	ErrNotFound   = errors.New("utilisateur non trouvé")
	ErrSelfTarget = errors.New("vous ne pouvez pas modifier votre propre compte")
)

// Service d'administration des comptes
type Service struct {
	userRepo user.Repository
	log      zerolog.Logger
}

// NewService crée un nouveau service d'administration
func NewService(userRepo user.Repository, log zerolog.Logger) *Service {
	return &Service{
		userRepo: userRepo,
		log:      log,
	}
}

// CreateUserRequest data pour la création d'un compte par un admin
type CreateUserRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	IsActive  *bool  `json:"is_active"`
	Password  string `json:"password"`
}

// UserSummary est la projection d'affichage d'un compte dans la liste
type UserSummary struct {
	ID          int         `json:"id"`
	Sequence    string      `json:"sequence,omitempty"`
	DisplayCode string      `json:"display_code"`
	DisplayName string      `json:"display_name"`
	Initials    string      `json:"initials"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Phone       string      `json:"phone"`
	Role        models.Role `json:"role"`
	IsActive    bool        `json:"is_active"`
}

// UserDetail est la projection complète réservée au super administrateur
type UserDetail struct {
	UserSummary
	EmailVerified bool   `json:"email_verified"`
	DateJoined    string `json:"date_joined"`
	LastLogin     string `json:"last_login"`
	// Miroir en clair du mot de passe, exigence produit pour l'affichage admin
	PasswordPlain string `json:"password_plain"`
}

// IsSuperAdmin vérifie la capacité d'administration du principal.
// Le flag historique is_superuser est replié sur role=super_admin à la
// première vérification (migration ponctuelle, persistée), puis la
// décision ne dépend plus que du rôle.
func (s *Service) IsSuperAdmin(principal *models.User) bool {
	if principal == nil {
		return false
	}

	if principal.Role == models.RoleSuperAdmin {
		return true
	}

	if principal.IsSuperuser {
		if err := s.userRepo.UpdateRole(principal.ID, models.RoleSuperAdmin); err != nil {
			s.log.Error().Err(err).Int("user_id", principal.ID).Msg("promotion du flag superuser impossible")
			return false
		}
		principal.Role = models.RoleSuperAdmin
		return true
	}

	return false
}

// Principal recharge le compte associé à une session
func (s *Service) Principal(userID int) (*models.User, error) {
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// ListUsers retourne tous les comptes triés par ID, décorés pour
// l'affichage, avec l'indicateur can_manage du principal
func (s *Service) ListUsers(principal *models.User, filters user.ListFilters) ([]UserSummary, bool, error) {
	users, err := s.userRepo.List(filters)
	if err != nil {
		return nil, false, fmt.Errorf("erreur lors de la récupération des utilisateurs: %w", err)
	}

	summaries := make([]UserSummary, 0, len(users))
	for i, u := range users {
		summary := summarize(u)
		summary.Sequence = fmt.Sprintf("%02d", i+1)
		summaries = append(summaries, summary)
	}

	return summaries, s.IsSuperAdmin(principal), nil
}

// GetUserDetail retourne le profil complet d'un compte (super admin uniquement)
func (s *Service) GetUserDetail(principal *models.User, id int) (*UserDetail, error) {
	if !s.IsSuperAdmin(principal) {
		return nil, ErrForbidden
	}

	u, err := s.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	detail := &UserDetail{
		UserSummary:   summarize(u),
		EmailVerified: u.EmailVerified,
		DateJoined:    formatTimestamp(&u.DateJoined),
		LastLogin:     formatTimestamp(u.LastLogin),
		PasswordPlain: "-",
	}
	if u.PasswordPlain != nil && *u.PasswordPlain != "" {
		detail.PasswordPlain = *u.PasswordPlain
	}

	return detail, nil
}

// CreateUser crée un compte. Toutes les erreurs de champ sont accumulées
// dans une seule réponse plutôt que de s'arrêter à la première.
func (s *Service) CreateUser(principal *models.User, req CreateUserRequest) (*UserSummary, error) {
	if !s.IsSuperAdmin(principal) {
		return nil, ErrForbidden
	}

	var errs validation.ValidationErrors

	if err := validation.ValidateName(req.FirstName, "first_name"); err != nil {
		errs = append(errs, err.(validation.ValidationError))
	}
	if err := validation.ValidateName(req.LastName, "last_name"); err != nil {
		errs = append(errs, err.(validation.ValidationError))
	}

	if err := validation.ValidateEmail(req.Email); err != nil {
		errs = append(errs, err.(validation.ValidationError))
	} else {
		exists, err := s.userRepo.EmailExists(req.Email)
		if err != nil {
			return nil, fmt.Errorf("erreur lors de la vérification de l'email: %w", err)
		}
		if exists {
			errs = append(errs, validation.ValidationError{
				Field:   "email",
				Message: "cette adresse email est déjà utilisée",
			})
		}
	}

	if err := validation.ValidateRole(req.Role); err != nil {
		errs = append(errs, err.(validation.ValidationError))
	}

	if err := validation.ValidatePassword(req.Password); err != nil {
		errs = append(errs, err.(validation.ValidationError))
	}

	if len(errs) > 0 {
		return nil, errs
	}

	username, err := s.generateUsername(req.FirstName, req.LastName, req.Email)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la génération du nom d'utilisateur: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("erreur lors du hachage du mot de passe: %w", err)
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	plain := req.Password
	newUser := &models.User{
		Username:      username,
		Email:         strings.TrimSpace(req.Email),
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		Phone:         strings.TrimSpace(req.Phone),
		Role:          models.Role(req.Role),
		Password:      string(hashed),
		PasswordPlain: &plain,
		IsActive:      isActive,
	}

	if err := s.userRepo.Create(newUser); err != nil {
		return nil, fmt.Errorf("erreur lors de la création de l'utilisateur: %w", err)
	}

	s.log.Info().Int("user_id", newUser.ID).Str("username", username).Msg("compte créé")

	summary := summarize(newUser)
	return &summary, nil
}

// ToggleUserStatus bascule le statut actif/inactif d'un compte.
// Interdit sur son propre compte pour éviter de s'enfermer dehors.
func (s *Service) ToggleUserStatus(principal *models.User, id int) (*models.User, error) {
	if !s.IsSuperAdmin(principal) {
		return nil, ErrForbidden
	}

	if principal.ID == id {
		return nil, ErrSelfTarget
	}

	u, err := s.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.userRepo.SetActive(id, !u.IsActive); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("erreur lors de la mise à jour du statut: %w", err)
	}

	u.IsActive = !u.IsActive
	return u, nil
}

// DeleteUser supprime définitivement un compte (pas de corbeille).
// Interdit sur son propre compte.
func (s *Service) DeleteUser(principal *models.User, id int) error {
	if !s.IsSuperAdmin(principal) {
		return ErrForbidden
	}

	if principal.ID == id {
		return ErrSelfTarget
	}

	if err := s.userRepo.Delete(id); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("erreur lors de la suppression de l'utilisateur: %w", err)
	}

	s.log.Info().Int("user_id", id).Msg("compte supprimé")
	return nil
}

// generateUsername dérive un nom d'utilisateur unique: prénom+nom en
// minuscules réduits aux alphanumériques, repli sur la partie locale de
// l'email, puis suffixe numérique croissant jusqu'à unicité
func (s *Service) generateUsername(firstName, lastName, email string) (string, error) {
	base := sanitizeUsername(firstName + lastName)
	if base == "" {
		local := email
		if at := strings.Index(email, "@"); at > 0 {
			local = email[:at]
		}
		base = sanitizeUsername(local)
	}
	if base == "" {
		base = "utilisateur"
	}

	candidate := base
	for i := 1; ; i++ {
		exists, err := s.userRepo.UsernameExists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = base + strconv.Itoa(i)
	}
}

// sanitizeUsername ne conserve que [a-z0-9]
func sanitizeUsername(s string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(s) {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// summarize construit la projection d'affichage d'un compte
func summarize(u *models.User) UserSummary {
	return UserSummary{
		ID:          u.ID,
		DisplayCode: fmt.Sprintf("#USR-%03d", u.ID),
		DisplayName: displayName(u),
		Initials:    initials(u),
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Phone:       u.Phone,
		Role:        u.Role,
		IsActive:    u.IsActive,
	}
}

// displayName retourne "prénom nom" ou le nom d'utilisateur à défaut
func displayName(u *models.User) string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		return u.Username
	}
	return name
}

// initials retourne les initiales prénom+nom, ou les deux premiers
// caractères du nom d'utilisateur si l'un des deux manque
func initials(u *models.User) string {
	first := strings.TrimSpace(u.FirstName)
	last := strings.TrimSpace(u.LastName)

	if first == "" || last == "" {
		runes := []rune(u.Username)
		if len(runes) >= 2 {
			return strings.ToUpper(string(runes[:2]))
		}
		return strings.ToUpper(u.Username)
	}

	return strings.ToUpper(string([]rune(first)[:1]) + string([]rune(last)[:1]))
}

// formatTimestamp formate une date au format français "JJ/MM/AAAA à HH:MM"
func formatTimestamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006 à 15:04")
}
