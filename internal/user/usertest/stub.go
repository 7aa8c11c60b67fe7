// Package usertest fournit des implémentations en mémoire des
// repositories, destinées aux tests unitaires des services.
package usertest

import (
	"sort"
	"strings"
	"time"

	"github.com/cduffaut/crm-accounts/internal/models"
	"github.com/cduffaut/crm-accounts/internal/user"
)

// StubRepo est une implémentation en mémoire de user.Repository
type StubRepo struct {
	Users  map[int]*models.User
	NextID int
}

// NewStubRepo crée un repository utilisateur en mémoire vide
func NewStubRepo() *StubRepo {
	return &StubRepo{Users: make(map[int]*models.User), NextID: 1}
}

// CloneUser copie un utilisateur pour isoler l'état du stub
func CloneUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	clone := *u
	if u.PasswordPlain != nil {
		p := *u.PasswordPlain
		clone.PasswordPlain = &p
	}
	if u.LastLogin != nil {
		t := *u.LastLogin
		clone.LastLogin = &t
	}
	return &clone
}

func (r *StubRepo) Create(u *models.User) error {
	u.ID = r.NextID
	r.NextID++
	now := time.Now()
	u.DateJoined = now
	u.CreatedAt = now
	u.UpdatedAt = now
	r.Users[u.ID] = CloneUser(u)
	return nil
}

func (r *StubRepo) GetByID(id int) (*models.User, error) {
	u, ok := r.Users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return CloneUser(u), nil
}

func (r *StubRepo) GetByEmailInsensitive(email string) (*models.User, error) {
	for _, u := range r.Users {
		if strings.EqualFold(u.Email, email) {
			return CloneUser(u), nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *StubRepo) List(filters user.ListFilters) ([]*models.User, error) {
	var out []*models.User
	for _, u := range r.Users {
		if matches(u, filters) {
			out = append(out, CloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// matches reproduit le filtrage SQL du repository réel
func matches(u *models.User, filters user.ListFilters) bool {
	if s := strings.ToLower(strings.TrimSpace(filters.Search)); s != "" {
		if !strings.Contains(strings.ToLower(u.FirstName), s) &&
			!strings.Contains(strings.ToLower(u.LastName), s) &&
			!strings.Contains(strings.ToLower(u.Email), s) &&
			!strings.Contains(strings.ToLower(u.Username), s) {
			return false
		}
	}
	if filters.Role != "" && string(u.Role) != filters.Role {
		return false
	}
	if filters.IsActive != nil && u.IsActive != *filters.IsActive {
		return false
	}
	return true
}

func (r *StubRepo) UsernameExists(username string) (bool, error) {
	for _, u := range r.Users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *StubRepo) EmailExists(email string) (bool, error) {
	for _, u := range r.Users {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *StubRepo) UpdatePassword(id int, hash, plain string) error {
	u, ok := r.Users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.Password = hash
	u.PasswordPlain = &plain
	return nil
}

func (r *StubRepo) UpdateRole(id int, role models.Role) error {
	u, ok := r.Users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.Role = role
	return nil
}

func (r *StubRepo) UpdateLastLogin(id int) error {
	u, ok := r.Users[id]
	if !ok {
		return user.ErrNotFound
	}
	now := time.Now()
	u.LastLogin = &now
	return nil
}

func (r *StubRepo) SetActive(id int, active bool) error {
	u, ok := r.Users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.IsActive = active
	return nil
}

func (r *StubRepo) Delete(id int) error {
	if _, ok := r.Users[id]; !ok {
		return user.ErrNotFound
	}
	delete(r.Users, id)
	return nil
}

// StubCodeRepo est une implémentation en mémoire de user.CodeRepository
type StubCodeRepo struct {
	Codes  []*models.PasswordResetCode
	NextID int
	// Now permet de contrôler l'horodatage des codes créés
	Now func() time.Time
}

// NewStubCodeRepo crée un repository de codes en mémoire vide
func NewStubCodeRepo() *StubCodeRepo {
	return &StubCodeRepo{NextID: 1, Now: time.Now}
}

func (r *StubCodeRepo) Create(code *models.PasswordResetCode) error {
	code.ID = r.NextID
	r.NextID++
	code.CreatedAt = r.Now()
	clone := *code
	r.Codes = append(r.Codes, &clone)
	return nil
}

func (r *StubCodeRepo) InvalidateForUser(userID int) error {
	for _, c := range r.Codes {
		if c.UserID == userID && !c.IsUsed {
			c.IsUsed = true
		}
	}
	return nil
}

func (r *StubCodeRepo) GetLatestUnused(email, code string) (*models.PasswordResetCode, error) {
	var latest *models.PasswordResetCode
	for _, c := range r.Codes {
		if c.IsUsed || c.Code != code || !strings.EqualFold(c.Email, email) {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, user.ErrNotFound
	}
	clone := *latest
	return &clone, nil
}

func (r *StubCodeRepo) MarkUsed(id int) error {
	for _, c := range r.Codes {
		if c.ID == id {
			c.IsUsed = true
			return nil
		}
	}
	return user.ErrNotFound
}
