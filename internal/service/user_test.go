package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devhance/backend/internal/apperror"
	"github.com/devhance/backend/internal/models"
	"github.com/devhance/backend/internal/testhelpers"
	"github.com/devhance/backend/internal/types"
)

func TestSyncDerivesUsernameFromEmail(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := NewUserService(db)

	claims := &types.IdentityClaims{Subject: "u1", Email: "carol@example.com"}
	user, err := svc.Sync(context.Background(), claims, nil)
	require.NoError(t, err)
	assert.Equal(t, "carol", user.Username)
	assert.Equal(t, "carol@example.com", user.Email)
	assert.False(t, user.IsProfileComplete)
}

func TestSyncDoesNotResetCompleteness(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := NewUserService(db)
	require.NoError(t, db.Create(&models.User{
		ID: "u1", Username: "alice", DisplayName: "Alice", IsProfileComplete: true,
	}).Error)

	claims := &types.IdentityClaims{Subject: "u1", Email: "alice@example.com", Username: "alice"}
	user, err := svc.Sync(context.Background(), claims, &types.SyncUserRequest{FirstName: "Alice", LastName: "A"})
	require.NoError(t, err)
	assert.True(t, user.IsProfileComplete)
	assert.Equal(t, "Alice A", user.DisplayName)
}

func TestEnsureExistsIsIdempotent(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := NewUserService(db)
	claims := &types.IdentityClaims{Subject: "u1", Email: "a@example.com", Username: "alice"}

	first, err := svc.EnsureExists(context.Background(), claims)
	require.NoError(t, err)
	second, err := svc.EnsureExists(context.Background(), claims)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestCompleteProfileConflictOnTakenUsername(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := NewUserService(db)
	require.NoError(t, db.Create(&models.User{ID: "u1", Username: "alice"}).Error)
	require.NoError(t, db.Create(&models.User{ID: "u2", Username: "bob"}).Error)

	_, err := svc.CompleteProfile(context.Background(), "u2", &types.CompleteProfileRequest{
		Username: "alice", DisplayName: "Bob",
	}, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrConflict))
}

func TestCompleteProfileKeepsOwnUsername(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := NewUserService(db)
	require.NoError(t, db.Create(&models.User{ID: "u1", Username: "alice"}).Error)

	user, err := svc.CompleteProfile(context.Background(), "u1", &types.CompleteProfileRequest{
		Username: "alice", DisplayName: "Alice A", Headline: "Builder",
	}, "https://img.test/a.png")
	require.NoError(t, err)
	assert.True(t, user.IsProfileComplete)
	assert.Equal(t, "Builder", user.Headline)
	assert.Equal(t, "https://img.test/a.png", user.ProfilePicture)
}

func TestApplyIdentityEventUpdatedUnknownUser(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := NewUserService(db)

	err := svc.ApplyIdentityEvent(context.Background(), &types.WebhookEvent{
		Type: types.EventUserUpdated,
		Data: types.WebhookUserData{ID: "ghost", Username: "ghost"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestApplyIdentityEventCreatedGeneratesUsername(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := NewUserService(db)

	err := svc.ApplyIdentityEvent(context.Background(), &types.WebhookEvent{
		Type: types.EventUserCreated,
		Data: types.WebhookUserData{ID: "u1", FirstName: "No", LastName: "Handle"},
	})
	require.NoError(t, err)

	var user models.User
	require.NoError(t, db.First(&user, "id = ?", "u1").Error)
	assert.NotEmpty(t, user.Username)
	assert.Equal(t, "No Handle", user.DisplayName)
}

func TestGetPublicProfileOmitsPrivateFields(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := NewUserService(db)
	require.NoError(t, db.Create(&models.User{
		ID: "u1", Username: "alice", DisplayName: "Alice", Email: "alice@example.com",
	}).Error)

	profile, err := svc.GetPublicProfile(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
}

func TestUsernameUniqueAtStorageLayer(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	require.NoError(t, db.Create(&models.User{ID: "u1", Username: "alice"}).Error)

	err := db.Create(&models.User{ID: "u2", Username: "alice"}).Error
	require.Error(t, err)
}
