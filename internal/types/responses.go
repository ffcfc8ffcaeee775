package types

import (
	"time"

	"github.com/devhance/backend/internal/models"
)

// ProjectFeedItem is a project enriched with its author summary and
// like/comment counts, as served by the discover feed and detail pages.
type ProjectFeedItem struct {
	models.Project
	Author       models.AuthorSummary `json:"author"`
	LikeCount    int64                `json:"likeCount"`
	CommentCount int64                `json:"commentCount"`
}

// CommentWithAuthor is a comment enriched with its author summary.
type CommentWithAuthor struct {
	models.ProjectComment
	Author models.AuthorSummary `json:"author"`
}

// LikeState reports the outcome of a like/unlike mutation.
type LikeState struct {
	Message   string    `json:"message"`
	Liked     bool      `json:"liked"`
	LikeCount int64     `json:"likeCount"`
	ChangedAt time.Time `json:"changed_at"`
}
