// ABOUTME: Operator account management with role-based default permissions
// ABOUTME: Guards unique emails (case-insensitive) and always keeps at least one admin
package services

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"sync"

	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/store"
)

// UserCollection holds one document per user.
const UserCollection = "users"

const (
	entityUser = "user"

	// maxActivity bounds the per-user history kept on the document.
	maxActivity = 50
)

// UserPatch carries the fields to change; nil fields are left alone.
type UserPatch struct {
	Nombre        *string            `json:"nombre,omitempty"`
	Apellido      *string            `json:"apellido,omitempty"`
	Email         *string            `json:"email,omitempty"`
	Rol           *string            `json:"rol,omitempty"`
	Estado        *string            `json:"estado,omitempty"`
	Permisos      *[]string          `json:"permisos,omitempty"`
	Configuracion *models.UserConfig `json:"configuracion,omitempty"`
}

type UserService struct {
	base
	// mu makes the email and admin checks atomic with the write that follows.
	mu sync.Mutex
}

func NewUserService(docs store.Documents, opts ...Option) *UserService {
	return &UserService{base: newBase(docs, opts)}
}

// Create stores a new user. Rol defaults to agent, estado to active, and
// permisos to the role's defaults.
func (s *UserService) Create(ctx context.Context, u models.User) (*models.User, error) {
	u.Nombre = strings.TrimSpace(u.Nombre)
	u.Email = strings.TrimSpace(u.Email)
	if u.Nombre == "" {
		return nil, invalid("nombre", "is required")
	}
	if err := validateEmail(u.Email); err != nil {
		return nil, err
	}
	if u.Rol == "" {
		u.Rol = models.RoleAgent
	}
	if !models.ValidRole(u.Rol) {
		return nil, invalid("rol", "unknown value %q", u.Rol)
	}
	if u.Estado == "" {
		u.Estado = models.UserActive
	}
	if !models.ValidUserEstado(u.Estado) {
		return nil, invalid("estado", "unknown value %q", u.Estado)
	}
	if len(u.Permisos) == 0 {
		u.Permisos = models.DefaultPermissions(u.Rol)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	if emailTaken(all, u.Email, "") {
		return nil, &DuplicateEmailError{Email: u.Email}
	}

	now := s.now()
	u.ID = newID()
	u.CreatedAt = now
	u.UpdatedAt = now
	u.HistorialActividad = nil
	s.appendActivity(&u, "created", fmt.Sprintf("rol %s", u.Rol))

	if err := store.PutJSON(ctx, s.docs, UserCollection, u.ID, u); err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns every user ordered by full name.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool {
		a, b := strings.ToLower(users[i].FullName()), strings.ToLower(users[j].FullName())
		if a == b {
			return users[i].ID < users[j].ID
		}
		return a < b
	})
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.getDoc(ctx, UserCollection, entityUser, id, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Update applies patch. Changing the email re-checks uniqueness; demoting the
// only admin fails with ErrLastAdmin.
func (s *UserService) Update(ctx context.Context, id string, patch UserPatch) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var changed []string

	if patch.Nombre != nil {
		nombre := strings.TrimSpace(*patch.Nombre)
		if nombre == "" {
			return nil, invalid("nombre", "is required")
		}
		u.Nombre = nombre
		changed = append(changed, "nombre")
	}
	if patch.Apellido != nil {
		u.Apellido = strings.TrimSpace(*patch.Apellido)
		changed = append(changed, "apellido")
	}
	if patch.Email != nil && !strings.EqualFold(strings.TrimSpace(*patch.Email), u.Email) {
		email := strings.TrimSpace(*patch.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		all, err := s.all(ctx)
		if err != nil {
			return nil, err
		}
		if emailTaken(all, email, u.ID) {
			return nil, &DuplicateEmailError{Email: email}
		}
		u.Email = email
		changed = append(changed, "email")
	}
	if patch.Rol != nil && *patch.Rol != u.Rol {
		if !models.ValidRole(*patch.Rol) {
			return nil, invalid("rol", "unknown value %q", *patch.Rol)
		}
		if u.Rol == models.RoleAdmin {
			if err := s.ensureAnotherAdmin(ctx, u.ID); err != nil {
				return nil, err
			}
		}
		u.Rol = *patch.Rol
		if patch.Permisos == nil {
			u.Permisos = models.DefaultPermissions(u.Rol)
		}
		changed = append(changed, "rol")
	}
	if patch.Estado != nil {
		if !models.ValidUserEstado(*patch.Estado) {
			return nil, invalid("estado", "unknown value %q", *patch.Estado)
		}
		u.Estado = *patch.Estado
		changed = append(changed, "estado")
	}
	if patch.Permisos != nil {
		u.Permisos = append([]string{}, (*patch.Permisos)...)
		changed = append(changed, "permisos")
	}
	if patch.Configuracion != nil {
		u.Configuracion = *patch.Configuracion
		changed = append(changed, "configuracion")
	}

	u.UpdatedAt = s.now()
	s.appendActivity(u, "updated", strings.Join(changed, ", "))

	if err := store.PutJSON(ctx, s.docs, UserCollection, u.ID, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes a user. The only admin cannot be deleted.
func (s *UserService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if u.Rol == models.RoleAdmin {
		if err := s.ensureAnotherAdmin(ctx, u.ID); err != nil {
			return err
		}
	}
	return s.deleteDoc(ctx, UserCollection, entityUser, id)
}

// ByRole returns the users holding rol.
func (s *UserService) ByRole(ctx context.Context, rol string) ([]models.User, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.User{}
	for _, u := range all {
		if u.Rol == rol {
			out = append(out, u)
		}
	}
	return out, nil
}

// Stats counts users per role and estado; every known bucket is present.
func (s *UserService) Stats(ctx context.Context) (*models.UserSummary, error) {
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}

	summary := &models.UserSummary{
		PorRol:    make(map[string]int, len(models.Roles)),
		PorEstado: make(map[string]int, len(models.UserEstados)),
	}
	for _, r := range models.Roles {
		summary.PorRol[r] = 0
	}
	for _, e := range models.UserEstados {
		summary.PorEstado[e] = 0
	}
	for _, u := range all {
		summary.Total++
		summary.PorRol[u.Rol]++
		summary.PorEstado[u.Estado]++
	}
	return summary, nil
}

// RecordActivity appends an entry to the user's history.
func (s *UserService) RecordActivity(ctx context.Context, id, accion, detalle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	s.appendActivity(u, accion, detalle)
	return store.PutJSON(ctx, s.docs, UserCollection, u.ID, u)
}

func (s *UserService) all(ctx context.Context) ([]models.User, error) {
	return store.ListJSON[models.User](ctx, s.docs, UserCollection)
}

// ensureAnotherAdmin fails unless some admin other than id exists.
func (s *UserService) ensureAnotherAdmin(ctx context.Context, id string) error {
	all, err := s.all(ctx)
	if err != nil {
		return err
	}
	for _, other := range all {
		if other.ID != id && other.Rol == models.RoleAdmin {
			return nil
		}
	}
	return ErrLastAdmin
}

func (s *UserService) appendActivity(u *models.User, accion, detalle string) {
	u.HistorialActividad = append(u.HistorialActividad, models.Activity{
		ID:      newSortableID(),
		Accion:  accion,
		Detalle: detalle,
		Fecha:   s.now(),
	})
	if n := len(u.HistorialActividad); n > maxActivity {
		u.HistorialActividad = u.HistorialActividad[n-maxActivity:]
	}
}

func emailTaken(users []models.User, email, exceptID string) bool {
	for _, u := range users {
		if u.ID != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func validateEmail(email string) error {
	if email == "" {
		return invalid("email", "is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return invalid("email", "%q is not a valid address", email)
	}
	return nil
}
