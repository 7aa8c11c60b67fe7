package auth

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/cduffaut/crm-accounts/internal/models"
	"github.com/cduffaut/crm-accounts/internal/user/usertest"
	"github.com/cduffaut/crm-accounts/internal/validation"
)

func mustHash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash du mot de passe impossible: %v", err)
	}
	return string(h)
}

func seedUser(t *testing.T, repo *usertest.StubRepo, email, password string, active bool) *models.User {
	t.Helper()
	u := &models.User{
		Username: "jdupont",
		Email:    email,
		Password: mustHash(t, password),
		IsActive: active,
		Role:     models.RoleEtudiant,
	}
	if err := repo.Create(u); err != nil {
		t.Fatalf("seed impossible: %v", err)
	}
	return u
}

func TestLogin_Success(t *testing.T) {
	repo := usertest.NewStubRepo()
	seeded := seedUser(t, repo, "jean@exemple.fr", "motdepasse", true)
	svc := NewService(repo, zerolog.Nop())

	u, err := svc.Login(LoginRequest{Email: "jean@exemple.fr", Password: "motdepasse"})
	if err != nil {
		t.Fatalf("Login a retourné une erreur: %v", err)
	}
	if u.ID != seeded.ID {
		t.Fatalf("mauvais utilisateur retourné: %d", u.ID)
	}

	stored, _ := repo.GetByID(seeded.ID)
	if stored.LastLogin == nil {
		t.Fatalf("last_login aurait dû être renseigné")
	}
}

func TestLogin_CaseInsensitiveEmail(t *testing.T) {
	repo := usertest.NewStubRepo()
	seedUser(t, repo, "Jean@Exemple.fr", "motdepasse", true)
	svc := NewService(repo, zerolog.Nop())

	if _, err := svc.Login(LoginRequest{Email: "jean@exemple.fr", Password: "motdepasse"}); err != nil {
		t.Fatalf("la recherche par email doit être insensible à la casse: %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := usertest.NewStubRepo()
	seedUser(t, repo, "jean@exemple.fr", "motdepasse", true)
	svc := NewService(repo, zerolog.Nop())

	_, err := svc.Login(LoginRequest{Email: "jean@exemple.fr", Password: "mauvais"})
	if !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("attendu ErrWrongPassword, obtenu %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	repo := usertest.NewStubRepo()
	svc := NewService(repo, zerolog.Nop())

	_, err := svc.Login(LoginRequest{Email: "inconnu@exemple.fr", Password: "motdepasse"})
	if !errors.Is(err, ErrEmailNotFound) {
		t.Fatalf("attendu ErrEmailNotFound, obtenu %v", err)
	}
}

func TestLogin_InactiveAccount(t *testing.T) {
	repo := usertest.NewStubRepo()
	seedUser(t, repo, "jean@exemple.fr", "motdepasse", false)
	svc := NewService(repo, zerolog.Nop())

	_, err := svc.Login(LoginRequest{Email: "jean@exemple.fr", Password: "motdepasse"})
	if !errors.Is(err, ErrInactiveAccount) {
		t.Fatalf("attendu ErrInactiveAccount, obtenu %v", err)
	}
}

func TestLogin_Validation(t *testing.T) {
	repo := usertest.NewStubRepo()
	svc := NewService(repo, zerolog.Nop())

	cases := []struct {
		name  string
		req   LoginRequest
		field string
	}{
		{"email vide", LoginRequest{Email: "", Password: "motdepasse"}, "email"},
		{"mot de passe vide", LoginRequest{Email: "jean@exemple.fr", Password: ""}, "password"},
		{"format email invalide", LoginRequest{Email: "pas-un-email", Password: "motdepasse"}, "email"},
		{"mot de passe trop court", LoginRequest{Email: "jean@exemple.fr", Password: "ab"}, "password"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(tc.req)
			var vErr validation.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("attendu une erreur de validation, obtenu %v", err)
			}
			if vErr.Field != tc.field {
				t.Fatalf("attendu champ %q, obtenu %q", tc.field, vErr.Field)
			}
		})
	}
}

func TestChangePassword_Success(t *testing.T) {
	repo := usertest.NewStubRepo()
	seeded := seedUser(t, repo, "jean@exemple.fr", "ancienmdp", true)
	svc := NewService(repo, zerolog.Nop())

	_, err := svc.ChangePassword(seeded.ID, ChangePasswordRequest{
		OldPassword:     "ancienmdp",
		NewPassword:     "nouveaumdp1",
		ConfirmPassword: "nouveaumdp1",
	})
	if err != nil {
		t.Fatalf("ChangePassword a retourné une erreur: %v", err)
	}

	stored, _ := repo.GetByID(seeded.ID)
	if err := bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("nouveaumdp1")); err != nil {
		t.Fatalf("le hash ne correspond pas au nouveau mot de passe: %v", err)
	}
	if stored.PasswordPlain == nil || *stored.PasswordPlain != "nouveaumdp1" {
		t.Fatalf("le miroir en clair aurait dû être mis à jour")
	}
}

func TestChangePassword_WrongOld(t *testing.T) {
	repo := usertest.NewStubRepo()
	seeded := seedUser(t, repo, "jean@exemple.fr", "ancienmdp", true)
	svc := NewService(repo, zerolog.Nop())

	_, err := svc.ChangePassword(seeded.ID, ChangePasswordRequest{
		OldPassword:     "mauvais",
		NewPassword:     "nouveaumdp1",
		ConfirmPassword: "nouveaumdp1",
	})
	if !errors.Is(err, ErrOldPasswordInvalid) {
		t.Fatalf("attendu ErrOldPasswordInvalid, obtenu %v", err)
	}
}

func TestChangePassword_Mismatch(t *testing.T) {
	repo := usertest.NewStubRepo()
	seeded := seedUser(t, repo, "jean@exemple.fr", "ancienmdp", true)
	svc := NewService(repo, zerolog.Nop())

	_, err := svc.ChangePassword(seeded.ID, ChangePasswordRequest{
		OldPassword:     "ancienmdp",
		NewPassword:     "nouveaumdp1",
		ConfirmPassword: "autremdp1",
	})
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("attendu ErrPasswordMismatch, obtenu %v", err)
	}
}

func TestChangePassword_TooShort(t *testing.T) {
	repo := usertest.NewStubRepo()
	seeded := seedUser(t, repo, "jean@exemple.fr", "ancienmdp", true)
	svc := NewService(repo, zerolog.Nop())

	_, err := svc.ChangePassword(seeded.ID, ChangePasswordRequest{
		OldPassword:     "ancienmdp",
		NewPassword:     "court",
		ConfirmPassword: "court",
	})
	var vErr validation.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("attendu une erreur de validation, obtenu %v", err)
	}
}
