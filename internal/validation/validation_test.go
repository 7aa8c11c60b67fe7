package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	valides := []string{
		"jean@exemple.fr",
		"jean.dupont@sous.domaine.fr",
		"contact+crm@exemple.com",
	}
	for _, email := range valides {
		if err := ValidateEmail(email); err != nil {
			t.Errorf("ValidateEmail(%q) aurait dû réussir: %v", email, err)
		}
	}

	invalides := []string{
		"",
		"pas-un-email",
		"jean@exemple",     // pas de TLD
		"jean exemple.fr",  // pas de @
		"jean @exemple.fr", // espace
		"@exemple.fr",
		strings.Repeat("a", 250) + "@exemple.fr", // trop long
	}
	for _, email := range invalides {
		err := ValidateEmail(email)
		if err == nil {
			t.Errorf("ValidateEmail(%q) aurait dû échouer", email)
			continue
		}
		var vErr ValidationError
		if !errors.As(err, &vErr) || vErr.Field != "email" {
			t.Errorf("ValidateEmail(%q): erreur mal taguée: %v", email, err)
		}
	}
}

func TestValidateName(t *testing.T) {
	if err := ValidateName("Jean", "first_name"); err != nil {
		t.Fatalf("un prénom valide ne doit pas échouer: %v", err)
	}

	cases := []struct {
		name  string
		value string
	}{
		{"vide", ""},
		{"trop court", "J"},
		{"trop long", strings.Repeat("a", 51)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateName(tc.value, "last_name")
			var vErr ValidationError
			if !errors.As(err, &vErr) || vErr.Field != "last_name" {
				t.Fatalf("erreur attendue sur last_name, obtenu %v", err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("longenough1"); err != nil {
		t.Fatalf("un mot de passe de 8+ caractères ne doit pas échouer: %v", err)
	}
	if err := ValidatePassword("1234567"); err == nil {
		t.Fatalf("7 caractères doivent être refusés")
	}
	if err := ValidatePassword(""); err == nil {
		t.Fatalf("un mot de passe vide doit être refusé")
	}
}

func TestValidateRole(t *testing.T) {
	for _, role := range []string{"super_admin", "responsable", "assistante", "entreprise", "formateur", "etudiant"} {
		if err := ValidateRole(role); err != nil {
			t.Errorf("ValidateRole(%q) aurait dû réussir: %v", role, err)
		}
	}
	if err := ValidateRole("pirate"); err == nil {
		t.Fatalf("un rôle hors énumération doit être refusé")
	}
	if err := ValidateRole(""); err == nil {
		t.Fatalf("un rôle vide doit être refusé")
	}
}

func TestValidationErrorsToMap(t *testing.T) {
	errs := ValidationErrors{
		{Field: "email", Message: "format d'email invalide"},
		{Field: "email", Message: "doublon ignoré"},
		{Field: "password", Message: "trop court"},
	}

	m := errs.ToMap()
	if len(m) != 2 {
		t.Fatalf("attendu 2 champs, obtenu %d", len(m))
	}
	if m["email"] != "format d'email invalide" {
		t.Fatalf("la première erreur du champ doit être conservée: %q", m["email"])
	}
}
