package user

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/cduffaut/crm-accounts/internal/models"
)

// PostgresRepository est l'implémentation PostgreSQL du Repository
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository crée un nouveau repository utilisateur
func NewPostgresRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, username, email, first_name, last_name, phone, role,
       password, password_plain, is_active, email_verified, is_superuser,
       date_joined, last_login, created_at, updated_at`

// scanUser lit une ligne complète de la table users
func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	u := &models.User{}
	var plain sql.NullString
	var lastLogin sql.NullTime

	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.Phone,
		&u.Role,
		&u.Password,
		&plain,
		&u.IsActive,
		&u.EmailVerified,
		&u.IsSuperuser,
		&u.DateJoined,
		&lastLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if plain.Valid {
		u.PasswordPlain = &plain.String
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}

	return u, nil
}

// Create ajoute un nouvel utilisateur dans la base de données
func (r *PostgresRepository) Create(user *models.User) error {
	query := `
        INSERT INTO users (username, email, first_name, last_name, phone, role,
                           password, password_plain, is_active)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, date_joined, created_at, updated_at
    `

	return r.db.QueryRow(
		query,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Role,
		user.Password,
		user.PasswordPlain,
		user.IsActive,
	).Scan(&user.ID, &user.DateJoined, &user.CreatedAt, &user.UpdatedAt)
}

// GetByID récupère un utilisateur par son ID
func (r *PostgresRepository) GetByID(id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return u, nil
}

// GetByEmailInsensitive récupère un utilisateur par email, insensible à la casse
func (r *PostgresRepository) GetByEmailInsensitive(email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	u, err := scanUser(r.db.QueryRow(query, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return u, nil
}

// List récupère tous les utilisateurs triés par ID, avec filtres optionnels
func (r *PostgresRepository) List(filters ListFilters) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`

	var conditions []string
	var args []interface{}

	if s := strings.TrimSpace(filters.Search); s != "" {
		args = append(args, "%"+strings.ToLower(s)+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			`(LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d OR LOWER(email) LIKE $%d OR LOWER(username) LIKE $%d)`,
			n, n, n, n))
	}

	if filters.Role != "" {
		args = append(args, filters.Role)
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)))
	}

	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// UsernameExists vérifie si un nom d'utilisateur est déjà pris
func (r *PostgresRepository) UsernameExists(username string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

// EmailExists vérifie si un email est déjà utilisé (insensible à la casse)
func (r *PostgresRepository) EmailExists(email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`, email).Scan(&exists)
	return exists, err
}

// UpdatePassword met à jour le hash et le miroir en clair d'un utilisateur
func (r *PostgresRepository) UpdatePassword(id int, hash, plain string) error {
	query := `
        UPDATE users
        SET password = $1, password_plain = $2, updated_at = CURRENT_TIMESTAMP
        WHERE id = $3
    `

	_, err := r.db.Exec(query, hash, plain, id)
	return err
}

// UpdateRole met à jour le rôle d'un utilisateur
func (r *PostgresRepository) UpdateRole(id int, role models.Role) error {
	query := `
        UPDATE users
        SET role = $1, updated_at = CURRENT_TIMESTAMP
        WHERE id = $2
    `

	_, err := r.db.Exec(query, role, id)
	return err
}

// UpdateLastLogin enregistre la date de dernière connexion
func (r *PostgresRepository) UpdateLastLogin(id int) error {
	query := `
        UPDATE users
        SET last_login = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
        WHERE id = $1
    `

	_, err := r.db.Exec(query, id)
	return err
}

// SetActive met à jour le statut actif/inactif d'un utilisateur
func (r *PostgresRepository) SetActive(id int, active bool) error {
	query := `
        UPDATE users
        SET is_active = $1, updated_at = CURRENT_TIMESTAMP
        WHERE id = $2
    `

	result, err := r.db.Exec(query, active, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete supprime définitivement un utilisateur (les codes de
// réinitialisation suivent par cascade)
func (r *PostgresRepository) Delete(id int) error {
	result, err := r.db.Exec(`DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}
