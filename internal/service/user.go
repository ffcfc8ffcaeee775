package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/devhance/backend/internal/apperror"
	"github.com/devhance/backend/internal/models"
	"github.com/devhance/backend/internal/types"
)

// UserService handles user profile operations
type UserService struct {
	db *gorm.DB
}

var _ IUserService = (*UserService)(nil)

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// GetByID retrieves a user by identity-provider subject id.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, apperror.Upstream("failed to fetch user", err)
	}
	return &user, nil
}

// Sync upserts a user row from the verified claims plus an optional
// identity snapshot from the client. Completeness is never set here: a
// new row starts incomplete and an update leaves the flag untouched.
func (s *UserService) Sync(ctx context.Context, claims *types.IdentityClaims, req *types.SyncUserRequest) (*models.User, error) {
	if req == nil {
		req = &types.SyncUserRequest{}
	}

	user := models.User{
		ID:             claims.Subject,
		Username:       pickUsername(req.Username, claims, req.Email),
		DisplayName:    pickDisplayName(req, claims),
		Email:          firstNonEmpty(req.Email, claims.Email),
		ProfilePicture: req.ImageURL,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "display_name", "email", "profile_picture", "updated_at"}),
	}).Create(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("username is already taken")
		}
		return nil, apperror.Upstream("failed to sync user", err)
	}

	return s.GetByID(ctx, claims.Subject)
}

// EnsureExists lazily creates a minimal user row on the first
// authenticated write. The webhook path can race this insert; the
// primary-key constraint arbitrates and the losing insert is treated as
// a benign already-exists, not an error.
func (s *UserService) EnsureExists(ctx context.Context, claims *types.IdentityClaims) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", claims.Subject).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Upstream("failed to fetch user", err)
	}

	user = models.User{
		ID:          claims.Subject,
		Username:    pickUsername("", claims, ""),
		DisplayName: pickDisplayName(nil, claims),
		Email:       claims.Email,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Debug().Str("user_id", claims.Subject).Msg("lazy user insert lost the race, reloading")
			return s.GetByID(ctx, claims.Subject)
		}
		return nil, apperror.Upstream("failed to create user", err)
	}
	return &user, nil
}

// CompleteProfile applies the profile-completion form and flips
// is_profile_complete. The username pre-check is a fast path for a
// friendly error; the unique index on username is the source of truth
// and its violation is translated to the same Conflict.
func (s *UserService) CompleteProfile(ctx context.Context, userID string, req *types.CompleteProfileRequest, pictureURL string) (*models.User, error) {
	var other models.User
	err := s.db.WithContext(ctx).
		Where("username = ? AND id <> ?", req.Username, userID).
		First(&other).Error
	if err == nil {
		return nil, apperror.Conflict("username is already taken")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Upstream("failed to check username", err)
	}

	var user models.User
	err = s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Upstream("failed to fetch user", err)
	}

	user.ID = userID
	user.Username = req.Username
	user.DisplayName = req.DisplayName
	user.Headline = req.Headline
	user.Location = req.Location
	user.Bio = req.Bio
	user.GithubURL = req.GithubURL
	user.LinkedinURL = req.LinkedinURL
	user.WebsiteURL = req.WebsiteURL
	user.IsProfileComplete = true
	if pictureURL != "" {
		user.ProfilePicture = pictureURL
	}

	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("username is already taken")
		}
		return nil, apperror.Upstream("failed to save profile", err)
	}
	return &user, nil
}

// GetPublicProfile returns the public fields of a user by username.
func (s *UserService) GetPublicProfile(ctx context.Context, username string) (*models.PublicUser, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, apperror.Upstream("failed to fetch user", err)
	}
	return user.Public(), nil
}

// PublicProjects lists a user's public projects, newest first.
func (s *UserService) PublicProjects(ctx context.Context, username string) ([]types.ProjectFeedItem, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, apperror.Upstream("failed to fetch user", err)
	}

	var projects []models.Project
	err := s.db.WithContext(ctx).
		Where("author_id = ? AND is_public = ?", user.ID, true).
		Order("created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, apperror.Upstream("failed to fetch projects", err)
	}

	return attachFeedMetadata(ctx, s.db, projects, map[string]*models.User{user.ID: &user})
}

// ApplyIdentityEvent mirrors a verified identity-provider event into the
// users table. Deletion cascades to everything the user owns.
func (s *UserService) ApplyIdentityEvent(ctx context.Context, event *types.WebhookEvent) error {
	switch event.Type {
	case types.EventUserCreated:
		user := userFromEventData(&event.Data)
		err := s.db.WithContext(ctx).Create(user).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// The lazy-creation path won the insert race; fold the
			// event into an update instead.
			log.Debug().Str("user_id", event.Data.ID).Msg("webhook user.created raced an existing row, updating")
			return s.updateFromEventData(ctx, &event.Data)
		}
		if err != nil {
			return apperror.Upstream("failed to create user from event", err)
		}
		return nil

	case types.EventUserUpdated:
		return s.updateFromEventData(ctx, &event.Data)

	case types.EventUserDeleted:
		return s.deleteUserCascade(ctx, event.Data.ID)

	default:
		log.Info().Str("type", event.Type).Msg("ignoring unhandled identity event")
		return nil
	}
}

func (s *UserService) updateFromEventData(ctx context.Context, data *types.WebhookUserData) error {
	updates := map[string]interface{}{
		"display_name":    data.DisplayName(),
		"profile_picture": data.ImageURL,
	}
	if data.Username != "" {
		updates["username"] = data.Username
	}
	if email := data.PrimaryEmail(); email != "" {
		updates["email"] = email
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", data.ID).Updates(updates)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return apperror.Conflict("username is already taken")
		}
		return apperror.Upstream("failed to update user from event", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("user", data.ID)
	}
	return nil
}

func (s *UserService) deleteUserCascade(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var projectIDs []string
		if err := tx.Model(&models.Project{}).Where("author_id = ?", userID).Pluck("id", &projectIDs).Error; err != nil {
			return err
		}
		if len(projectIDs) > 0 {
			if err := tx.Where("project_id IN ?", projectIDs).Delete(&models.ProjectLike{}).Error; err != nil {
				return err
			}
			if err := tx.Where("project_id IN ?", projectIDs).Delete(&models.ProjectComment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("author_id = ?", userID).Delete(&models.Project{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.ProjectLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.ProjectComment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, "id = ?", userID).Error
	})
	if err != nil {
		return apperror.Upstream("failed to delete user", err)
	}
	return nil
}

func userFromEventData(data *types.WebhookUserData) *models.User {
	user := &models.User{
		ID:             data.ID,
		Username:       data.Username,
		DisplayName:    data.DisplayName(),
		Email:          data.PrimaryEmail(),
		ProfilePicture: data.ImageURL,
	}
	if user.Username == "" {
		user.Username = generatedUsername()
	}
	if data.CreatedAt > 0 {
		user.CreatedAt = time.UnixMilli(data.CreatedAt)
	}
	if data.UpdatedAt > 0 {
		user.UpdatedAt = time.UnixMilli(data.UpdatedAt)
	}
	return user
}

func pickUsername(requested string, claims *types.IdentityClaims, email string) string {
	if requested != "" {
		return requested
	}
	if claims.Username != "" {
		return claims.Username
	}
	addr := firstNonEmpty(email, claims.Email)
	if at := strings.Index(addr, "@"); at > 0 {
		return addr[:at]
	}
	return generatedUsername()
}

func pickDisplayName(req *types.SyncUserRequest, claims *types.IdentityClaims) string {
	if req != nil {
		name := strings.TrimSpace(strings.TrimSpace(req.FirstName) + " " + strings.TrimSpace(req.LastName))
		if name != "" {
			return name
		}
		if req.Username != "" {
			return req.Username
		}
	}
	if claims.Username != "" {
		return claims.Username
	}
	if claims.Email != "" {
		return claims.Email
	}
	return "User"
}

func generatedUsername() string {
	return fmt.Sprintf("user_%d", time.Now().UnixNano())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
