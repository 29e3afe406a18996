// ABOUTME: Tests for team member management
// ABOUTME: Covers email uniqueness and the last-admin guard

package services_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/services"
)

func newUserService() *services.UserService {
	return services.NewUserService(newDocs(), services.WithClock(newClock().Now))
}

func TestCreateUserDefaults(t *testing.T) {
	svc := newUserService()

	u, err := svc.Create(context.Background(), models.User{Nombre: "Maria", Email: "maria@x.com"})
	require.NoError(t, err)

	assert.Equal(t, models.RoleAgent, u.Rol)
	assert.Equal(t, models.UserActive, u.Estado)
	assert.Equal(t, models.DefaultPermissions(models.RoleAgent), u.Permisos)
	require.Len(t, u.HistorialActividad, 1)
	assert.Equal(t, "created", u.HistorialActividad[0].Accion)
}

func TestCreateUserDuplicateEmailCaseInsensitive(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()

	_, err := svc.Create(ctx, models.User{Nombre: "Ana", Email: "ana@x.com"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, models.User{Nombre: "Other Ana", Email: "ANA@X.com"})
	var dup *services.DuplicateEmailError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "ANA@X.com", dup.Email)

	users, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestCreateUserValidation(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()

	tests := []struct {
		name  string
		user  models.User
		field string
	}{
		{"missing nombre", models.User{Email: "a@x.com"}, "nombre"},
		{"missing email", models.User{Nombre: "A"}, "email"},
		{"bad email", models.User{Nombre: "A", Email: "not-an-email"}, "email"},
		{"bad rol", models.User{Nombre: "A", Email: "a@x.com", Rol: "owner"}, "rol"},
		{"bad estado", models.User{Nombre: "A", Email: "a@x.com", Estado: "gone"}, "estado"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.user)
			var verr *services.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestDeleteLastAdminRefused(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()

	admin, err := svc.Create(ctx, models.User{Nombre: "Root", Email: "root@x.com", Rol: models.RoleAdmin})
	require.NoError(t, err)

	err = svc.Delete(ctx, admin.ID)
	assert.ErrorIs(t, err, services.ErrLastAdmin)

	users, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestDemoteLastAdminRefused(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()

	admin, err := svc.Create(ctx, models.User{Nombre: "Root", Email: "root@x.com", Rol: models.RoleAdmin})
	require.NoError(t, err)

	_, err = svc.Update(ctx, admin.ID, services.UserPatch{Rol: ptr(models.RoleViewer)})
	assert.ErrorIs(t, err, services.ErrLastAdmin)

	stored, err := svc.Get(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, stored.Rol)
}

func TestAdminCanBeRemovedWhenAnotherExists(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()

	first, err := svc.Create(ctx, models.User{Nombre: "One", Email: "one@x.com", Rol: models.RoleAdmin})
	require.NoError(t, err)
	_, err = svc.Create(ctx, models.User{Nombre: "Two", Email: "two@x.com", Rol: models.RoleAdmin})
	require.NoError(t, err)

	demoted, err := svc.Update(ctx, first.ID, services.UserPatch{Rol: ptr(models.RoleManager)})
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, demoted.Rol)
	assert.Equal(t, models.DefaultPermissions(models.RoleManager), demoted.Permisos)

	require.NoError(t, svc.Delete(ctx, first.ID))
}

func TestUpdateUserEmailDuplicate(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()

	_, err := svc.Create(ctx, models.User{Nombre: "A", Email: "a@x.com"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, models.User{Nombre: "B", Email: "b@x.com"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, b.ID, services.UserPatch{Email: ptr("A@x.com")})
	var dup *services.DuplicateEmailError
	assert.ErrorAs(t, err, &dup)

	// Changing only the case of one's own email is not a conflict.
	updated, err := svc.Update(ctx, b.ID, services.UserPatch{Email: ptr("B@x.com"), Apellido: ptr("Diaz")})
	require.NoError(t, err)
	assert.Equal(t, "Diaz", updated.Apellido)
	assert.Len(t, updated.HistorialActividad, 2)
}

func TestUpdateMissingUser(t *testing.T) {
	svc := newUserService()
	_, err := svc.Update(context.Background(), "ghost", services.UserPatch{Nombre: ptr("x")})
	assert.True(t, services.IsNotFound(err))
}

func TestUsersByRoleAndStats(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()

	for i, rol := range []string{models.RoleAdmin, models.RoleAgent, models.RoleAgent} {
		_, err := svc.Create(ctx, models.User{Nombre: fmt.Sprintf("U%d", i), Email: fmt.Sprintf("u%d@x.com", i), Rol: rol})
		require.NoError(t, err)
	}

	agents, err := svc.ByRole(ctx, models.RoleAgent)
	require.NoError(t, err)
	assert.Len(t, agents, 2)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.PorRol[models.RoleAdmin])
	assert.Equal(t, 2, stats.PorRol[models.RoleAgent])
	assert.Equal(t, 0, stats.PorRol[models.RoleViewer])
	assert.Equal(t, 3, stats.PorEstado[models.UserActive])
	assert.Contains(t, stats.PorEstado, models.UserSuspended)
}

func TestActivityHistoryIsBounded(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()

	u, err := svc.Create(ctx, models.User{Nombre: "Busy", Email: "busy@x.com"})
	require.NoError(t, err)
	for i := 0; i < 60; i++ {
		require.NoError(t, svc.RecordActivity(ctx, u.ID, "login", ""))
	}

	stored, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, stored.HistorialActividad, 50)
	assert.Equal(t, "login", stored.HistorialActividad[0].Accion)
}
