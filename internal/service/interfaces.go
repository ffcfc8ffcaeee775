package service

import (
	"context"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"

	"github.com/devhance/backend/internal/models"
	"github.com/devhance/backend/internal/types"
)

// IIdentityService verifies identity-provider session tokens and
// webhook signatures. Token issuance is entirely the provider's job.
type IIdentityService interface {
	VerifyToken(token string) (*types.IdentityClaims, error)
	VerifyWebhook(headers http.Header, payload []byte) (*types.WebhookEvent, error)
}

// IUserService defines user profile operations.
type IUserService interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	Sync(ctx context.Context, claims *types.IdentityClaims, req *types.SyncUserRequest) (*models.User, error)
	EnsureExists(ctx context.Context, claims *types.IdentityClaims) (*models.User, error)
	CompleteProfile(ctx context.Context, userID string, req *types.CompleteProfileRequest, pictureURL string) (*models.User, error)
	GetPublicProfile(ctx context.Context, username string) (*models.PublicUser, error)
	PublicProjects(ctx context.Context, username string) ([]types.ProjectFeedItem, error)
	ApplyIdentityEvent(ctx context.Context, event *types.WebhookEvent) error
}

// IProjectService defines project, like and comment operations.
type IProjectService interface {
	Discover(ctx context.Context) ([]types.ProjectFeedItem, error)
	ListByAuthor(ctx context.Context, authorID string) ([]types.ProjectFeedItem, error)
	Get(ctx context.Context, id uuid.UUID) (*types.ProjectFeedItem, error)
	Create(ctx context.Context, authorID string, in *types.ProjectInput, imageURLs []string) (*models.Project, error)
	Update(ctx context.Context, id uuid.UUID, requesterID string, in *types.ProjectInput, newImageURLs []string) (*models.Project, error)
	Delete(ctx context.Context, id uuid.UUID, requesterID string) error
	Like(ctx context.Context, projectID uuid.UUID, userID string) (*types.LikeState, error)
	Unlike(ctx context.Context, projectID uuid.UUID, userID string) (*types.LikeState, error)
	Comments(ctx context.Context, projectID uuid.UUID) ([]types.CommentWithAuthor, error)
	AddComment(ctx context.Context, projectID uuid.UUID, userID, text string) (*types.CommentWithAuthor, error)
	UpdateComment(ctx context.Context, projectID, commentID uuid.UUID, userID, text string) (*types.CommentWithAuthor, error)
	DeleteComment(ctx context.Context, projectID, commentID uuid.UUID, userID string) error
}

// IMediaService uploads binary images to the media host and returns one
// durable URL per image. The batch is all-or-nothing: any failure aborts
// the parent operation before its row is written.
type IMediaService interface {
	UploadImages(ctx context.Context, files []*multipart.FileHeader, folder string) ([]string, error)
}
