package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/devhance/backend/internal/apperror"
	"github.com/devhance/backend/internal/models"
	"github.com/devhance/backend/internal/service"
	"github.com/devhance/backend/internal/testhelpers"
	"github.com/devhance/backend/internal/types"
)

// These tests run against a real PostgreSQL container and verify that
// the uniqueness invariants hold at the storage layer itself, not just
// in application-level pre-checks.

func TestPostgresUsernameUnique(t *testing.T) {
	db := testhelpers.SetupPostgresDatabase(t)

	require.NoError(t, db.Create(&models.User{ID: "u1", Username: "alice"}).Error)

	err := db.Create(&models.User{ID: "u2", Username: "alice"}).Error
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
}

func TestPostgresLikePairUnique(t *testing.T) {
	db := testhelpers.SetupPostgresDatabase(t)
	svc := service.NewProjectService(db, nil)

	require.NoError(t, db.Create(&models.User{ID: "u1", Username: "alice"}).Error)
	project := &models.Project{Title: "Foo", Description: "d", Story: "s", AuthorID: "u1", IsPublic: true}
	require.NoError(t, db.Create(project).Error)

	_, err := svc.Like(context.Background(), project.ID, "u1")
	require.NoError(t, err)

	_, err = svc.Like(context.Background(), project.ID, "u1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrConflict))

	var likes int64
	db.Model(&models.ProjectLike{}).Count(&likes)
	assert.EqualValues(t, 1, likes)
}

func TestPostgresUserDeleteCascade(t *testing.T) {
	db := testhelpers.SetupPostgresDatabase(t)
	userSvc := service.NewUserService(db)

	require.NoError(t, db.Create(&models.User{ID: "u1", Username: "alice"}).Error)
	require.NoError(t, db.Create(&models.User{ID: "u2", Username: "bob"}).Error)
	project := &models.Project{Title: "Foo", Description: "d", Story: "s", AuthorID: "u1", IsPublic: true}
	require.NoError(t, db.Create(project).Error)
	require.NoError(t, db.Create(&models.ProjectLike{ProjectID: project.ID, UserID: "u2"}).Error)
	require.NoError(t, db.Create(&models.ProjectComment{ProjectID: project.ID, UserID: "u2", Text: "hi"}).Error)

	require.NoError(t, userSvc.ApplyIdentityEvent(context.Background(), &types.WebhookEvent{
		Type: types.EventUserDeleted,
		Data: types.WebhookUserData{ID: "u1"},
	}))

	var projects, likes, comments int64
	db.Model(&models.Project{}).Count(&projects)
	db.Model(&models.ProjectLike{}).Count(&likes)
	db.Model(&models.ProjectComment{}).Count(&comments)
	assert.Zero(t, projects)
	assert.Zero(t, likes)
	assert.Zero(t, comments)
}
