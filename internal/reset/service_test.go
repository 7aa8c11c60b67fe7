package reset

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/cduffaut/crm-accounts/internal/models"
	"github.com/cduffaut/crm-accounts/internal/user/usertest"
	"github.com/cduffaut/crm-accounts/internal/validation"
)

type stubSender struct {
	sent []string
	fail bool
}

func (s *stubSender) SendPasswordResetCode(to, firstName, code string) error {
	if s.fail {
		return errors.New("connexion SMTP refusée")
	}
	s.sent = append(s.sent, code)
	return nil
}

type fixture struct {
	userRepo *usertest.StubRepo
	codeRepo *usertest.StubCodeRepo
	sender   *stubSender
	svc      *Service
	account  *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	userRepo := usertest.NewStubRepo()
	codeRepo := usertest.NewStubCodeRepo()
	sender := &stubSender{}

	hash, err := bcrypt.GenerateFromPassword([]byte("ancienmdp"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash impossible: %v", err)
	}
	account := &models.User{
		Username:  "jdupont",
		FirstName: "Jean",
		Email:     "Jean@Exemple.fr",
		Password:  string(hash),
		IsActive:  true,
		Role:      models.RoleEtudiant,
	}
	if err := userRepo.Create(account); err != nil {
		t.Fatalf("seed impossible: %v", err)
	}

	return &fixture{
		userRepo: userRepo,
		codeRepo: codeRepo,
		sender:   sender,
		svc:      NewService(userRepo, codeRepo, sender, zerolog.Nop()),
		account:  account,
	}
}

// activeCode retourne le code actif du compte de test
func (f *fixture) activeCode(t *testing.T) *models.PasswordResetCode {
	t.Helper()
	var active *models.PasswordResetCode
	for _, c := range f.codeRepo.Codes {
		if !c.IsUsed {
			if active != nil {
				t.Fatalf("plusieurs codes actifs trouvés")
			}
			active = c
		}
	}
	if active == nil {
		t.Fatalf("aucun code actif trouvé")
	}
	return active
}

func TestRequest_UnknownEmail(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Request("inconnu@exemple.fr")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("attendu ErrUserNotFound, obtenu %v", err)
	}
	if len(f.codeRepo.Codes) != 0 {
		t.Fatalf("aucun code ne doit être émis pour un email inconnu")
	}
}

func TestRequest_InvalidEmailFormat(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Request("pas-un-email")
	var vErr validation.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("attendu une erreur de validation, obtenu %v", err)
	}
}

func TestRequest_IssuesSixDigitCode(t *testing.T) {
	f := newFixture(t)

	// recherche insensible à la casse, email canonique persisté
	if err := f.svc.Request("jean@exemple.fr"); err != nil {
		t.Fatalf("Request a retourné une erreur: %v", err)
	}

	code := f.activeCode(t)
	if len(code.Code) != 6 {
		t.Fatalf("attendu un code à 6 chiffres, obtenu %q", code.Code)
	}
	for _, c := range code.Code {
		if c < '0' || c > '9' {
			t.Fatalf("le code doit être numérique, obtenu %q", code.Code)
		}
	}
	if code.Email != "Jean@Exemple.fr" {
		t.Fatalf("l'email canonique du compte doit être persisté, obtenu %q", code.Email)
	}
	if len(f.sender.sent) != 1 || f.sender.sent[0] != code.Code {
		t.Fatalf("le code émis doit être envoyé par email")
	}
}

func TestRequest_InvalidatesPreviousCodes(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.Request("jean@exemple.fr"); err != nil {
		t.Fatalf("première demande: %v", err)
	}
	if err := f.svc.Request("jean@exemple.fr"); err != nil {
		t.Fatalf("seconde demande: %v", err)
	}

	if len(f.codeRepo.Codes) != 2 {
		t.Fatalf("les codes doivent être historisés, obtenu %d", len(f.codeRepo.Codes))
	}
	// Un seul code actif: le plus récent
	active := f.activeCode(t)
	if active.ID != 2 {
		t.Fatalf("seul le code le plus récent doit rester actif, obtenu #%d", active.ID)
	}
}

func TestRequest_MailFailureSwallowed(t *testing.T) {
	f := newFixture(t)
	f.sender.fail = true

	if err := f.svc.Request("jean@exemple.fr"); err != nil {
		t.Fatalf("un échec d'envoi ne doit pas remonter: %v", err)
	}
	// Le code est bien persisté malgré l'échec d'envoi
	f.activeCode(t)
}

func TestVerify_ValidityWindowBoundary(t *testing.T) {
	f := newFixture(t)

	issued := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	f.codeRepo.Now = func() time.Time { return issued }
	if err := f.svc.Request("jean@exemple.fr"); err != nil {
		t.Fatalf("Request a retourné une erreur: %v", err)
	}
	code := f.activeCode(t).Code

	// 4 minutes 59: encore valide
	f.svc.now = func() time.Time { return issued.Add(4*time.Minute + 59*time.Second) }
	if err := f.svc.Verify("jean@exemple.fr", code); err != nil {
		t.Fatalf("le code doit être valide à 4:59, obtenu %v", err)
	}

	// 5 minutes 01: expiré
	f.svc.now = func() time.Time { return issued.Add(5*time.Minute + time.Second) }
	if err := f.svc.Verify("jean@exemple.fr", code); !errors.Is(err, ErrExpiredCode) {
		t.Fatalf("attendu ErrExpiredCode à 5:01, obtenu %v", err)
	}

	// L'expiration ne consomme pas le code
	if f.activeCode(t).IsUsed {
		t.Fatalf("un code expiré ne doit pas être marqué utilisé")
	}
}

func TestVerify_NonDestructive(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.Request("jean@exemple.fr"); err != nil {
		t.Fatalf("Request a retourné une erreur: %v", err)
	}
	code := f.activeCode(t).Code

	if err := f.svc.Verify("jean@exemple.fr", code); err != nil {
		t.Fatalf("première vérification: %v", err)
	}
	if err := f.svc.Verify("jean@exemple.fr", code); err != nil {
		t.Fatalf("la vérification ne doit pas consommer le code: %v", err)
	}
}

func TestVerify_InvalidCode(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.Request("jean@exemple.fr"); err != nil {
		t.Fatalf("Request a retourné une erreur: %v", err)
	}

	if err := f.svc.Verify("jean@exemple.fr", "000000"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("attendu ErrInvalidCode, obtenu %v", err)
	}
}

func TestConfirm_Success(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.Request("jean@exemple.fr"); err != nil {
		t.Fatalf("Request a retourné une erreur: %v", err)
	}
	code := f.activeCode(t).Code

	if err := f.svc.Confirm("jean@exemple.fr", code, "nouveaumdp1"); err != nil {
		t.Fatalf("Confirm a retourné une erreur: %v", err)
	}

	stored, _ := f.userRepo.GetByID(f.account.ID)
	if err := bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("nouveaumdp1")); err != nil {
		t.Fatalf("le hash ne correspond pas au nouveau mot de passe: %v", err)
	}
	if stored.PasswordPlain == nil || *stored.PasswordPlain != "nouveaumdp1" {
		t.Fatalf("le miroir en clair aurait dû être mis à jour")
	}

	// Le code est consommé: une seconde confirmation échoue
	if err := f.svc.Confirm("jean@exemple.fr", code, "encoreunmdp1"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("le code consommé doit être refusé, obtenu %v", err)
	}
}

func TestConfirm_ExpiredLeavesPasswordUnchanged(t *testing.T) {
	f := newFixture(t)

	issued := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	f.codeRepo.Now = func() time.Time { return issued }
	if err := f.svc.Request("jean@exemple.fr"); err != nil {
		t.Fatalf("Request a retourné une erreur: %v", err)
	}
	code := f.activeCode(t).Code
	before, _ := f.userRepo.GetByID(f.account.ID)

	f.svc.now = func() time.Time { return issued.Add(6 * time.Minute) }
	if err := f.svc.Confirm("jean@exemple.fr", code, "nouveaumdp1"); !errors.Is(err, ErrExpiredCode) {
		t.Fatalf("attendu ErrExpiredCode, obtenu %v", err)
	}

	after, _ := f.userRepo.GetByID(f.account.ID)
	if after.Password != before.Password {
		t.Fatalf("le hash ne doit pas changer avec un code expiré")
	}
}

func TestConfirm_PasswordTooShort(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.Request("jean@exemple.fr"); err != nil {
		t.Fatalf("Request a retourné une erreur: %v", err)
	}
	code := f.activeCode(t).Code

	err := f.svc.Confirm("jean@exemple.fr", code, "court")
	var vErr validation.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("attendu une erreur de validation, obtenu %v", err)
	}
	// Le code reste actif
	if f.activeCode(t).IsUsed {
		t.Fatalf("le code ne doit pas être consommé sur une validation échouée")
	}
}
