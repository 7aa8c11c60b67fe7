package user

import (
	"database/sql"

	"github.com/cduffaut/crm-accounts/internal/models"
)

// PostgresCodeRepository est l'implémentation PostgreSQL du CodeRepository
type PostgresCodeRepository struct {
	db *sql.DB
}

// NewPostgresCodeRepository crée un nouveau repository de codes de réinitialisation
func NewPostgresCodeRepository(db *sql.DB) CodeRepository {
	return &PostgresCodeRepository{db: db}
}

// Create ajoute un nouveau code de réinitialisation
func (r *PostgresCodeRepository) Create(code *models.PasswordResetCode) error {
	query := `
        INSERT INTO password_reset_codes (user_id, code, email)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `

	return r.db.QueryRow(
		query,
		code.UserID,
		code.Code,
		code.Email,
	).Scan(&code.ID, &code.CreatedAt)
}

// InvalidateForUser marque utilisés tous les codes non utilisés d'un compte
// (au plus un code actif par utilisateur)
func (r *PostgresCodeRepository) InvalidateForUser(userID int) error {
	query := `
        UPDATE password_reset_codes
        SET is_used = TRUE
        WHERE user_id = $1 AND is_used = FALSE
    `

	_, err := r.db.Exec(query, userID)
	return err
}

// GetLatestUnused retourne le code non utilisé le plus récent correspondant
// à l'email (insensible à la casse) et au code exact
func (r *PostgresCodeRepository) GetLatestUnused(email, code string) (*models.PasswordResetCode, error) {
	query := `
        SELECT id, user_id, code, email, is_used, created_at
        FROM password_reset_codes
        WHERE LOWER(email) = LOWER($1) AND code = $2 AND is_used = FALSE
        ORDER BY created_at DESC
        LIMIT 1
    `

	c := &models.PasswordResetCode{}
	err := r.db.QueryRow(query, email, code).Scan(
		&c.ID,
		&c.UserID,
		&c.Code,
		&c.Email,
		&c.IsUsed,
		&c.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return c, nil
}

// MarkUsed marque un code comme consommé (état terminal)
func (r *PostgresCodeRepository) MarkUsed(id int) error {
	query := `
        UPDATE password_reset_codes
        SET is_used = TRUE
        WHERE id = $1
    `

	_, err := r.db.Exec(query, id)
	return err
}
