package models

import "time"

// Role représente le rôle d'un utilisateur dans le CRM
type Role string

// Les rôles disponibles (un seul rôle à la fois par compte)
const (
	RoleSuperAdmin  Role = "super_admin"
	RoleResponsable Role = "responsable"
	RoleAssistante  Role = "assistante"
	RoleEntreprise  Role = "entreprise"
	RoleFormateur   Role = "formateur"
	RoleEtudiant    Role = "etudiant"
)

// Roles liste tous les rôles valides, dans l'ordre d'affichage
var Roles = []Role{
	RoleSuperAdmin,
	RoleResponsable,
	RoleAssistante,
	RoleEntreprise,
	RoleFormateur,
	RoleEtudiant,
}

// IsValidRole vérifie qu'une chaîne correspond à un rôle connu
func IsValidRole(s string) bool {
	for _, r := range Roles {
		if string(r) == s {
			return true
		}
	}
	return false
}

// User représente un compte utilisateur du système
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Role      Role   `json:"role"`

	// Ne jamais exposer le hash
	Password string `json:"-"`
	// Mot de passe en clair, conservé uniquement pour l'affichage
	// dans l'interface d'administration (exigence produit assumée)
	PasswordPlain *string `json:"-"`

	IsActive bool `json:"is_active"`
	// Champ réservé: aucun flux ne le passe à true aujourd'hui
	EmailVerified bool `json:"email_verified"`
	// Flag historique d'élévation, replié sur role=super_admin
	// à la première vérification de privilège
	IsSuperuser bool `json:"-"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DateJoined time.Time  `json:"date_joined"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
}

// PasswordResetCode représente un code de réinitialisation à usage unique
type PasswordResetCode struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Code      string    `json:"-"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	IsUsed    bool      `json:"is_used"`
}

// ResetCodeTTL est la fenêtre de validité d'un code de réinitialisation
const ResetCodeTTL = 5 * time.Minute

// IsValid vérifie si le code est utilisable à l'instant donné:
// non utilisé et émis depuis moins de 5 minutes
func (c *PasswordResetCode) IsValid(now time.Time) bool {
	return !c.IsUsed && !now.After(c.CreatedAt.Add(ResetCodeTTL))
}

// IsExpired vérifie si la fenêtre de 5 minutes est dépassée
func (c *PasswordResetCode) IsExpired(now time.Time) bool {
	return now.After(c.CreatedAt.Add(ResetCodeTTL))
}
