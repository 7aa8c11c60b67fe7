package reset

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/cduffaut/crm-accounts/internal/models"
	"github.com/cduffaut/crm-accounts/internal/user"
	"github.com/cduffaut/crm-accounts/internal/validation"
)

// Erreurs du flux de réinitialisation
var (
	ErrUserNotFound = errors.New("aucun compte trouvé avec cette adresse email")
	ErrInvalidCode  = errors.New("code invalide")
	ErrExpiredCode  = errors.New("code expiré, veuillez demander un nouveau code")
)

// Sender abstrait l'envoi du code par email
type Sender interface {
	SendPasswordResetCode(to, firstName, code string) error
}

// Service du flux de réinitialisation de mot de passe.
// États par email: aucun code actif → code émis → vérifié ou expiré → consommé.
type Service struct {
	userRepo user.Repository
	codeRepo user.CodeRepository
	sender   Sender
	log      zerolog.Logger

	// remplaçable dans les tests pour contrôler l'horloge
	now func() time.Time
}

// NewService crée un nouveau service de réinitialisation
func NewService(userRepo user.Repository, codeRepo user.CodeRepository, sender Sender, log zerolog.Logger) *Service {
	return &Service{
		userRepo: userRepo,
		codeRepo: codeRepo,
		sender:   sender,
		log:      log,
		now:      time.Now,
	}
}

// Request invalide les codes précédents du compte, émet un nouveau
// code à 6 chiffres et tente de l'envoyer par email. Un échec d'envoi
// est journalisé mais jamais remonté à l'appelant: une fois le code
// persisté, la demande est considérée réussie.
func (s *Service) Request(email string) error {
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}

	u, err := s.userRepo.GetByEmailInsensitive(email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("erreur lors de la recherche du compte: %w", err)
	}

	// Au plus un code actif par compte
	if err := s.codeRepo.InvalidateForUser(u.ID); err != nil {
		return fmt.Errorf("erreur lors de l'invalidation des codes précédents: %w", err)
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("erreur lors de la génération du code: %w", err)
	}

	resetCode := &models.PasswordResetCode{
		UserID: u.ID,
		Code:   code,
		Email:  u.Email, // email canonique du compte
	}
	if err := s.codeRepo.Create(resetCode); err != nil {
		return fmt.Errorf("erreur lors de l'enregistrement du code: %w", err)
	}

	if err := s.sender.SendPasswordResetCode(u.Email, u.FirstName, code); err != nil {
		s.log.Error().Err(err).Str("email", u.Email).Msg("envoi du code de réinitialisation impossible")
	}

	return nil
}

// Verify contrôle un code sans le consommer: le même code reste
// utilisable pour l'étape de confirmation
func (s *Service) Verify(email, code string) error {
	c, err := s.codeRepo.GetLatestUnused(email, code)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrInvalidCode
		}
		return fmt.Errorf("erreur lors de la recherche du code: %w", err)
	}

	if c.IsExpired(s.now()) {
		return ErrExpiredCode
	}

	return nil
}

// Confirm applique le nouveau mot de passe et consomme le code
// (état terminal). La session n'est pas renouvelée ici: l'utilisateur
// n'est pas connecté pendant ce flux.
func (s *Service) Confirm(email, code, newPassword string) error {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}

	c, err := s.codeRepo.GetLatestUnused(email, code)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrInvalidCode
		}
		return fmt.Errorf("erreur lors de la recherche du code: %w", err)
	}

	if c.IsExpired(s.now()) {
		return ErrExpiredCode
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("erreur lors du hachage du mot de passe: %w", err)
	}

	if err := s.userRepo.UpdatePassword(c.UserID, string(hashed), newPassword); err != nil {
		return fmt.Errorf("erreur lors de la mise à jour du mot de passe: %w", err)
	}

	if err := s.codeRepo.MarkUsed(c.ID); err != nil {
		return fmt.Errorf("erreur lors de la consommation du code: %w", err)
	}

	s.log.Info().Int("user_id", c.UserID).Msg("mot de passe réinitialisé via code")
	return nil
}

// generateCode génère un code aléatoire à 6 chiffres
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
