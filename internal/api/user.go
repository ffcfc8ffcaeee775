package api

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devhance/backend/internal/middleware"
	"github.com/devhance/backend/internal/service"
	"github.com/devhance/backend/internal/types"
)

const profileImageFolder = "devhance/profiles"

// UserHandler serves profile and public-user endpoints.
type UserHandler struct {
	users    service.IUserService
	media    service.IMediaService
	verifier middleware.TokenVerifier
}

func NewUserHandler(users service.IUserService, media service.IMediaService, verifier middleware.TokenVerifier) *UserHandler {
	return &UserHandler{users: users, media: media, verifier: verifier}
}

// RegisterRoutes wires the user endpoints onto the /api group.
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	auth := middleware.AuthMiddleware(h.verifier)

	users.GET("/profile", auth, h.GetProfile)
	users.POST("/profile", auth, h.CompleteProfile)
	users.POST("/sync", auth, h.Sync)
	users.GET("/:username", h.PublicProfile)
	users.GET("/:username/projects", h.PublicProjects)
}

// GetProfile returns the caller's own user row. 404 until the row has
// been created by sync, webhook or a first write; the client's gate
// treats that as an incomplete profile.
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Sync upserts the caller's user row from their identity claims plus an
// optional snapshot in the body.
func (h *UserHandler) Sync(c *gin.Context) {
	var req types.SyncUserRequest
	// An empty body is fine; the claims alone are enough to sync.
	_ = c.ShouldBindJSON(&req)

	user, err := h.users.Sync(c.Request.Context(), identityFromContext(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user synced", "user": user})
}

// CompleteProfile applies the profile-completion form, uploading the
// optional profile picture first.
func (h *UserHandler) CompleteProfile(c *gin.Context) {
	req, err := parseProfileForm(c)
	if err != nil {
		respondError(c, err)
		return
	}

	claims := identityFromContext(c)
	if _, err := h.users.EnsureExists(c.Request.Context(), claims); err != nil {
		respondError(c, err)
		return
	}

	var pictureURL string
	if file, err := c.FormFile("profile_picture"); err == nil && file != nil {
		urls, err := h.media.UploadImages(c.Request.Context(), []*multipart.FileHeader{file}, profileImageFolder)
		if err != nil {
			respondError(c, err)
			return
		}
		if len(urls) > 0 {
			pictureURL = urls[0]
		}
	}

	user, err := h.users.CompleteProfile(c.Request.Context(), claims.Subject, req, pictureURL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile completed", "user": user})
}

// PublicProfile returns the public view of a user.
func (h *UserHandler) PublicProfile(c *gin.Context) {
	profile, err := h.users.GetPublicProfile(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}

// PublicProjects lists a user's public projects.
func (h *UserHandler) PublicProjects(c *gin.Context) {
	items, err := h.users.PublicProjects(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": items})
}
