package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/devhance/backend/internal/apperror"
	"github.com/devhance/backend/internal/models"
	"github.com/devhance/backend/internal/testhelpers"
	"github.com/devhance/backend/internal/types"
)

func seedUser(t *testing.T, db *gorm.DB, id, username string) {
	require.NoError(t, db.Create(&models.User{ID: id, Username: username, DisplayName: username}).Error)
}

func seedProject(t *testing.T, db *gorm.DB, authorID, title string) *models.Project {
	p := &models.Project{Title: title, Description: "d", Story: "s", AuthorID: authorID, IsPublic: true}
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestCreateSetsThumbnailFromFirstImage(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := NewProjectService(db, nil)
	seedUser(t, db, "u1", "alice")

	project, err := svc.Create(context.Background(), "u1", &types.ProjectInput{
		Title: "Foo", Description: "d", Story: "s",
	}, []string{"https://m.test/1.png", "https://m.test/2.png"})
	require.NoError(t, err)
	assert.Equal(t, "https://m.test/1.png", project.Thumbnail)
	assert.Len(t, project.Images, 2)
}

func TestLikeMissingProject(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := NewProjectService(db, nil)
	seedUser(t, db, "u1", "alice")

	_, err := svc.Like(context.Background(), uuid.New(), "u1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestLikeDuplicateConflicts(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := NewProjectService(db, nil)
	seedUser(t, db, "u1", "alice")
	project := seedProject(t, db, "u1", "Foo")

	_, err := svc.Like(context.Background(), project.ID, "u1")
	require.NoError(t, err)

	_, err = svc.Like(context.Background(), project.ID, "u1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrConflict))
}

func TestUpdateKeepsImagesWhenNoneUploaded(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := NewProjectService(db, nil)
	seedUser(t, db, "u1", "alice")

	project, err := svc.Create(context.Background(), "u1", &types.ProjectInput{
		Title: "Foo", Description: "d", Story: "s",
	}, []string{"https://m.test/1.png"})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), project.ID, "u1", &types.ProjectInput{
		Title: "Foo2", Description: "d2", Story: "s2",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Foo2", updated.Title)
	assert.Equal(t, models.JSONBStringArray{"https://m.test/1.png"}, updated.Images)
	assert.Equal(t, "https://m.test/1.png", updated.Thumbnail)
}

func TestUpdateCommentWrongProject(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := NewProjectService(db, nil)
	seedUser(t, db, "u1", "alice")
	projectA := seedProject(t, db, "u1", "A")
	projectB := seedProject(t, db, "u1", "B")

	comment, err := svc.AddComment(context.Background(), projectA.ID, "u1", "hello")
	require.NoError(t, err)

	_, err = svc.UpdateComment(context.Background(), projectB.ID, comment.ID, "u1", "edited")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestCommentsNewestFirstWithAuthors(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := NewProjectService(db, nil)
	seedUser(t, db, "u1", "alice")
	seedUser(t, db, "u2", "bob")
	project := seedProject(t, db, "u1", "Foo")

	_, err := svc.AddComment(context.Background(), project.ID, "u1", "first")
	require.NoError(t, err)
	second, err := svc.AddComment(context.Background(), project.ID, "u2", "second")
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.ProjectComment{}).
		Where("id = ?", second.ID).
		Update("created_at", second.CreatedAt.Add(time.Second)).Error)

	comments, err := svc.Comments(context.Background(), project.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "second", comments[0].Text)
	assert.Equal(t, "bob", comments[0].Author.Username)
	assert.Equal(t, "alice", comments[1].Author.Username)
}

func TestDiscoverAttachesCountsWithoutAuthorsPreloaded(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := NewProjectService(db, nil)
	seedUser(t, db, "u1", "alice")
	seedUser(t, db, "u2", "bob")
	project := seedProject(t, db, "u1", "Foo")
	require.NoError(t, db.Create(&models.ProjectLike{ProjectID: project.ID, UserID: "u2"}).Error)

	items, err := svc.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.EqualValues(t, 1, items[0].LikeCount)
	assert.EqualValues(t, 0, items[0].CommentCount)
	assert.Equal(t, "alice", items[0].Author.Username)
}

func TestDeleteNonOwnerLeavesEverything(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := NewProjectService(db, nil)
	seedUser(t, db, "u1", "alice")
	seedUser(t, db, "u2", "bob")
	project := seedProject(t, db, "u1", "Foo")
	require.NoError(t, db.Create(&models.ProjectLike{ProjectID: project.ID, UserID: "u2"}).Error)

	err := svc.Delete(context.Background(), project.ID, "u2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrForbidden))

	var projects, likes int64
	db.Model(&models.Project{}).Count(&projects)
	db.Model(&models.ProjectLike{}).Count(&likes)
	assert.EqualValues(t, 1, projects)
	assert.EqualValues(t, 1, likes)
}
