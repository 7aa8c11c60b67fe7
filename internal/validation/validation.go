// internal/validation/validation.go
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cduffaut/crm-accounts/internal/models"
)

// Règles de validation
const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
	MinNameLength     = 2
	MaxNameLength     = 50
	MaxEmailLength    = 254
)

// emailRegex impose le format local@domain.tld
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidationError représente une erreur de validation
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors représente une liste d'erreurs de validation
// accumulées champ par champ (la création de compte ne s'arrête
// pas à la première erreur)
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "aucune erreur de validation"
	}

	var messages []string
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// ToMap regroupe les erreurs par champ pour la réponse JSON
func (e ValidationErrors) ToMap() map[string]string {
	m := make(map[string]string, len(e))
	for _, err := range e {
		// on garde la première erreur de chaque champ
		if _, ok := m[err.Field]; !ok {
			m[err.Field] = err.Message
		}
	}
	return m
}

// ValidateEmail valide un email
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)

	if email == "" {
		return ValidationError{Field: "email", Message: "l'adresse email est obligatoire"}
	}

	if len(email) > MaxEmailLength {
		return ValidationError{Field: "email", Message: fmt.Sprintf("l'email est trop long (max %d caractères)", MaxEmailLength)}
	}

	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "format d'email invalide"}
	}

	return nil
}

// ValidateName valide un prénom ou nom
func ValidateName(name, fieldName string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return ValidationError{Field: fieldName, Message: fmt.Sprintf("le %s est obligatoire", labelFor(fieldName))}
	}

	if len(name) < MinNameLength {
		return ValidationError{Field: fieldName, Message: fmt.Sprintf("le %s doit contenir au moins %d caractères", labelFor(fieldName), MinNameLength)}
	}

	if len(name) > MaxNameLength {
		return ValidationError{Field: fieldName, Message: fmt.Sprintf("le %s doit contenir au maximum %d caractères", labelFor(fieldName), MaxNameLength)}
	}

	return nil
}

// ValidatePassword valide un mot de passe
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "le mot de passe est obligatoire"}
	}

	if len(password) < MinPasswordLength {
		return ValidationError{Field: "password", Message: fmt.Sprintf("le mot de passe doit contenir au moins %d caractères", MinPasswordLength)}
	}

	if len(password) > MaxPasswordLength {
		return ValidationError{Field: "password", Message: fmt.Sprintf("le mot de passe doit contenir au maximum %d caractères", MaxPasswordLength)}
	}

	return nil
}

// ValidateRole vérifie que le rôle fait partie de l'énumération
func ValidateRole(role string) error {
	if strings.TrimSpace(role) == "" {
		return ValidationError{Field: "role", Message: "le rôle est obligatoire"}
	}

	if !models.IsValidRole(role) {
		return ValidationError{Field: "role", Message: "rôle invalide"}
	}

	return nil
}

// labelFor traduit le nom technique d'un champ en libellé français
func labelFor(field string) string {
	switch field {
	case "first_name":
		return "prénom"
	case "last_name":
		return "nom"
	default:
		return field
	}
}
