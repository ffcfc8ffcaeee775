package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/devhance/backend/internal/apperror"
)

type commentRequest struct {
	Text string `json:"text"`
}

// ListComments returns a project's comments, newest first.
func (h *ProjectHandler) ListComments(c *gin.Context) {
	id, err := parseProjectID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	comments, err := h.projects.Comments(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// AddComment creates a comment on a project. Commenting lazily creates
// the user row the same way a first project write does.
func (h *ProjectHandler) AddComment(c *gin.Context) {
	id, err := parseProjectID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	text, err := parseCommentBody(c)
	if err != nil {
		respondError(c, err)
		return
	}

	claims := identityFromContext(c)
	if _, err := h.users.EnsureExists(c.Request.Context(), claims); err != nil {
		respondError(c, err)
		return
	}

	comment, err := h.projects.AddComment(c.Request.Context(), id, claims.Subject, text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "comment added", "comment": comment})
}

// UpdateComment edits an owned comment.
func (h *ProjectHandler) UpdateComment(c *gin.Context) {
	projectID, err := parseProjectID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	commentID, err := parseCommentID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	text, err := parseCommentBody(c)
	if err != nil {
		respondError(c, err)
		return
	}

	comment, err := h.projects.UpdateComment(c.Request.Context(), projectID, commentID, c.GetString("user_id"), text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "comment updated", "comment": comment})
}

// DeleteComment removes an owned comment.
func (h *ProjectHandler) DeleteComment(c *gin.Context) {
	projectID, err := parseProjectID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	commentID, err := parseCommentID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.projects.DeleteComment(c.Request.Context(), projectID, commentID, c.GetString("user_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseCommentBody(c *gin.Context) (string, error) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return "", apperror.ValidationFailed("text", "invalid request body")
	}
	text := strings.TrimSpace(req.Text)
	if err := validateCommentText(text); err != nil {
		return "", err
	}
	return text, nil
}

func parseCommentID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("commentId"))
	if err != nil {
		return uuid.Nil, apperror.ValidationFailed("commentId", "invalid comment id")
	}
	return id, nil
}
