package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/devhance/backend/internal/apperror"
	"github.com/devhance/backend/internal/middleware"
	"github.com/devhance/backend/internal/service"
)

const projectImageFolder = "devhance/projects"

// ProjectHandler serves project, like and comment endpoints.
type ProjectHandler struct {
	projects service.IProjectService
	users    service.IUserService
	media    service.IMediaService
	verifier middleware.TokenVerifier
	limiter  *middleware.RateLimiter
}

func NewProjectHandler(
	projects service.IProjectService,
	users service.IUserService,
	media service.IMediaService,
	verifier middleware.TokenVerifier,
	limiter *middleware.RateLimiter,
) *ProjectHandler {
	return &ProjectHandler{
		projects: projects,
		users:    users,
		media:    media,
		verifier: verifier,
		limiter:  limiter,
	}
}

// RegisterRoutes wires the project endpoints onto the /api group.
func (h *ProjectHandler) RegisterRoutes(rg *gin.RouterGroup) {
	projects := rg.Group("/projects")
	auth := middleware.AuthMiddleware(h.verifier)

	projects.GET("/discover", h.Discover)
	projects.GET("/my-projects", auth, h.MyProjects)
	projects.GET("/:id", h.Get)

	if h.limiter != nil {
		projects.POST("", auth, h.limiter.RateLimitMiddleware(), h.Create)
	} else {
		projects.POST("", auth, h.Create)
	}
	projects.PUT("/:id", auth, h.Update)
	projects.DELETE("/:id", auth, h.Delete)

	projects.POST("/:id/like", auth, h.Like)
	projects.DELETE("/:id/like", auth, h.Unlike)

	projects.GET("/:id/comments", h.ListComments)
	projects.POST("/:id/comments", auth, h.AddComment)
	projects.PUT("/:id/comments/:commentId", auth, h.UpdateComment)
	projects.DELETE("/:id/comments/:commentId", auth, h.DeleteComment)
}

// Discover returns the public feed, newest first.
func (h *ProjectHandler) Discover(c *gin.Context) {
	items, err := h.projects.Discover(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": items})
}

// MyProjects returns all of the caller's projects, public or not.
func (h *ProjectHandler) MyProjects(c *gin.Context) {
	items, err := h.projects.ListByAuthor(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": items})
}

// Get returns a single project with author and engagement counts.
func (h *ProjectHandler) Get(c *gin.Context) {
	id, err := parseProjectID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	item, err := h.projects.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": item})
}

// Create validates the form, uploads the images, then writes the row.
// The user row is lazily created first so a webhook that never arrived
// does not block the first write.
func (h *ProjectHandler) Create(c *gin.Context) {
	in, err := parseProjectForm(c)
	if err != nil {
		respondError(c, err)
		return
	}

	claims := identityFromContext(c)
	if _, err := h.users.EnsureExists(c.Request.Context(), claims); err != nil {
		respondError(c, err)
		return
	}

	var imageURLs []string
	if form, err := c.MultipartForm(); err == nil {
		if files := form.File["images"]; len(files) > 0 {
			imageURLs, err = h.media.UploadImages(c.Request.Context(), files, projectImageFolder)
			if err != nil {
				respondError(c, err)
				return
			}
		}
	}

	project, err := h.projects.Create(c.Request.Context(), claims.Subject, in, imageURLs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "project created", "project": project})
}

// Update replaces an owned project's fields, and its images when new
// ones are uploaded.
func (h *ProjectHandler) Update(c *gin.Context) {
	id, err := parseProjectID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	in, err := parseProjectForm(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var imageURLs []string
	if form, err := c.MultipartForm(); err == nil {
		if files := form.File["images"]; len(files) > 0 {
			imageURLs, err = h.media.UploadImages(c.Request.Context(), files, projectImageFolder)
			if err != nil {
				respondError(c, err)
				return
			}
		}
	}

	project, err := h.projects.Update(c.Request.Context(), id, c.GetString("user_id"), in, imageURLs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "project updated", "project": project})
}

// Delete removes an owned project and everything attached to it.
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, err := parseProjectID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.projects.Delete(c.Request.Context(), id, c.GetString("user_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "project deleted"})
}

// Like records the caller's like. Liking twice is a 409.
func (h *ProjectHandler) Like(c *gin.Context) {
	id, err := parseProjectID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	state, err := h.projects.Like(c.Request.Context(), id, c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// Unlike removes the caller's like.
func (h *ProjectHandler) Unlike(c *gin.Context) {
	id, err := parseProjectID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	state, err := h.projects.Unlike(c.Request.Context(), id, c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func parseProjectID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperror.ValidationFailed("id", "invalid project id")
	}
	return id, nil
}
