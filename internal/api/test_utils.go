package api

import (
	"context"
	"fmt"
	"mime/multipart"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/devhance/backend/internal/apperror"
	"github.com/devhance/backend/internal/models"
	"github.com/devhance/backend/internal/service"
	"github.com/devhance/backend/internal/testhelpers"
	"github.com/devhance/backend/internal/types"
)

// stubVerifier maps bearer tokens directly to identity claims.
type stubVerifier struct {
	tokens map[string]*types.IdentityClaims
}

func (v *stubVerifier) VerifyToken(token string) (*types.IdentityClaims, error) {
	claims, ok := v.tokens[token]
	if !ok {
		return nil, apperror.Unauthorized("token is not valid")
	}
	return claims, nil
}

// stubMedia returns deterministic URLs without touching any bucket.
type stubMedia struct {
	fail bool
}

func (m *stubMedia) UploadImages(_ context.Context, files []*multipart.FileHeader, folder string) ([]string, error) {
	if m.fail {
		return nil, apperror.Upstream("failed to upload image", nil)
	}
	urls := make([]string, 0, len(files))
	for i := range files {
		urls = append(urls, fmt.Sprintf("https://media.test/%s/%d.png", folder, i))
	}
	return urls, nil
}

type testEnv struct {
	router   *gin.Engine
	db       *gorm.DB
	verifier *stubVerifier
	media    *stubMedia
}

// setupTestEnv builds a router backed by an in-memory database and stub
// collaborators. The returned verifier starts empty; register tokens
// with addToken.
func setupTestEnv(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)
	db := testhelpers.SetupTestDatabase(t)

	verifier := &stubVerifier{tokens: make(map[string]*types.IdentityClaims)}
	media := &stubMedia{}

	userSvc := service.NewUserService(db)
	projectSvc := service.NewProjectService(db, nil)

	projectHandler := NewProjectHandler(projectSvc, userSvc, media, verifier, nil)
	userHandler := NewUserHandler(userSvc, media, verifier)

	router := gin.New()
	apiGroup := router.Group("/api")
	projectHandler.RegisterRoutes(apiGroup)
	userHandler.RegisterRoutes(apiGroup)

	return &testEnv{router: router, db: db, verifier: verifier, media: media}
}

func (e *testEnv) addToken(token string, claims *types.IdentityClaims) {
	e.verifier.tokens[token] = claims
}

// createTestUser inserts a complete user row directly.
func createTestUser(t *testing.T, db *gorm.DB, id, username string) *models.User {
	user := &models.User{
		ID:                id,
		Username:          username,
		DisplayName:       username,
		Email:             username + "@example.com",
		IsProfileComplete: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// createTestProject inserts a public project owned by the given user.
func createTestProject(t *testing.T, db *gorm.DB, authorID, title string) *models.Project {
	project := &models.Project{
		Title:       title,
		Description: "a test project",
		Story:       "how it was built",
		AuthorID:    authorID,
		IsPublic:    true,
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}
	return project
}
