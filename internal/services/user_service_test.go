package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"worship_management/internal/apperr"
	"worship_management/internal/database/dbtest"
	"worship_management/internal/models"
	"worship_management/internal/repository"
)

func newUserService(t *testing.T) *UserService {
	t.Helper()
	db := dbtest.Open(t)
	return NewUserService(repository.NewUserRepository(db), superuser, zaptest.NewLogger(t))
}

func TestUserLifecycle(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, models.UserCreate{Name: "Ana", Email: "Ana@Example.com", Password: "secret1", DefaultKey: "g"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleSinger, user.Role)
	assert.Equal(t, "ana@example.com", user.Email)
	require.NotNil(t, user.DefaultKey)
	assert.Equal(t, models.KeyG, *user.DefaultKey)

	_, err = svc.CreateUser(ctx, models.UserCreate{Name: "Ana 2", Email: "ana@example.com", Password: "secret1"})
	assert.True(t, apperr.ErrConflict.Has(err))

	got, err := svc.Authenticate(ctx, "ANA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	_, err = svc.Authenticate(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	empty := ""
	role := "admin"
	user, err = svc.UpdateUser(ctx, user.ID, models.UserUpdate{DefaultKey: &empty, Role: &role})
	require.NoError(t, err)
	assert.Nil(t, user.DefaultKey)
	assert.True(t, user.IsAdmin())

	require.NoError(t, svc.DeleteUser(ctx, user.ID))
	_, err = svc.GetUser(ctx, user.ID)
	assert.True(t, apperr.ErrNotFound.Has(err))
}

func TestCreateUserValidation(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	for _, in := range []models.UserCreate{
		{Name: "", Email: "a@example.com", Password: "secret1"},
		{Name: "A", Email: "a@example.com", Password: "short"},
		{Name: "A", Email: "a@example.com", Password: "secret1", Role: "OWNER"},
		{Name: "A", Email: "a@example.com", Password: "secret1", DefaultKey: "Z"},
	} {
		_, err := svc.CreateUser(ctx, in)
		assert.True(t, apperr.ErrValidation.Has(err), "%+v", in)
	}
}

func TestListSingersExcludesSuperuser(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	for _, in := range []models.UserCreate{
		{Name: "Zoe", Email: "zoe@example.com", Password: "secret1"},
		{Name: "Root", Email: superuser, Password: "secret1", Role: "ADMIN"},
		{Name: "Bia", Email: "bia@example.com", Password: "secret1"},
	} {
		_, err := svc.CreateUser(ctx, in)
		require.NoError(t, err)
	}

	singers, err := svc.ListSingers(ctx)
	require.NoError(t, err)
	require.Len(t, singers, 2)
	assert.Equal(t, "Bia", singers[0].Name)
	assert.Equal(t, "Zoe", singers[1].Name)

	all, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
