package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/devhance/backend/internal/apperror"
	"github.com/devhance/backend/internal/models"
	"github.com/devhance/backend/internal/types"
)

const (
	discoverCacheKey = "feed:discover"
	discoverCacheTTL = 30 * time.Second
)

// ProjectService handles project, like and comment operations. The
// cache client is optional; when nil the discover feed always hits the
// database.
type ProjectService struct {
	db    *gorm.DB
	cache *redis.Client
}

var _ IProjectService = (*ProjectService)(nil)

func NewProjectService(db *gorm.DB, cache *redis.Client) *ProjectService {
	return &ProjectService{db: db, cache: cache}
}

// Discover returns all public projects, newest first, with author
// summaries and like/comment counts. Results are cached briefly.
func (s *ProjectService) Discover(ctx context.Context) ([]types.ProjectFeedItem, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, discoverCacheKey).Bytes(); err == nil {
			var items []types.ProjectFeedItem
			if json.Unmarshal(cached, &items) == nil {
				return items, nil
			}
		}
	}

	var projects []models.Project
	err := s.db.WithContext(ctx).
		Where("is_public = ?", true).
		Order("created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, apperror.Upstream("failed to fetch projects", err)
	}

	items, err := attachFeedMetadata(ctx, s.db, projects, nil)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(items); err == nil {
			if err := s.cache.Set(ctx, discoverCacheKey, data, discoverCacheTTL).Err(); err != nil {
				log.Warn().Err(err).Msg("failed to cache discover feed")
			}
		}
	}
	return items, nil
}

// ListByAuthor returns all of a user's projects, public or not.
func (s *ProjectService) ListByAuthor(ctx context.Context, authorID string) ([]types.ProjectFeedItem, error) {
	var projects []models.Project
	err := s.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, apperror.Upstream("failed to fetch projects", err)
	}
	return attachFeedMetadata(ctx, s.db, projects, nil)
}

// Get returns a single project with author and counts.
func (s *ProjectService) Get(ctx context.Context, id uuid.UUID) (*types.ProjectFeedItem, error) {
	project, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := attachFeedMetadata(ctx, s.db, []models.Project{*project}, nil)
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

// Create stores a new project. The first uploaded image becomes the
// thumbnail; the media upload has already succeeded in full by the time
// this runs, so the row is never written with missing images.
func (s *ProjectService) Create(ctx context.Context, authorID string, in *types.ProjectInput, imageURLs []string) (*models.Project, error) {
	project := models.Project{
		Title:       in.Title,
		Description: in.Description,
		Story:       in.Story,
		Images:      models.JSONBStringArray(imageURLs),
		TechStack:   models.JSONBStringArray(in.TechStack),
		Tags:        models.JSONBStringArray(in.Tags),
		GithubURL:   in.GithubURL,
		LiveURL:     in.LiveURL,
		FigmaURL:    in.FigmaURL,
		YoutubeURL:  in.YoutubeURL,
		AuthorID:    authorID,
		IsPublic:    true,
	}
	if len(imageURLs) > 0 {
		project.Thumbnail = imageURLs[0]
	}

	if err := s.db.WithContext(ctx).Create(&project).Error; err != nil {
		return nil, apperror.Upstream("failed to create project", err)
	}
	s.invalidateDiscover(ctx)
	return &project, nil
}

// Update mutates an owned project: resolve → ownership check → apply.
func (s *ProjectService) Update(ctx context.Context, id uuid.UUID, requesterID string, in *types.ProjectInput, newImageURLs []string) (*models.Project, error) {
	project, err := s.fetchOwned(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}

	project.Title = in.Title
	project.Description = in.Description
	project.Story = in.Story
	project.TechStack = models.JSONBStringArray(in.TechStack)
	project.Tags = models.JSONBStringArray(in.Tags)
	project.GithubURL = in.GithubURL
	project.LiveURL = in.LiveURL
	project.FigmaURL = in.FigmaURL
	project.YoutubeURL = in.YoutubeURL
	if len(newImageURLs) > 0 {
		project.Images = models.JSONBStringArray(newImageURLs)
		project.Thumbnail = newImageURLs[0]
	}

	if err := s.db.WithContext(ctx).Save(project).Error; err != nil {
		return nil, apperror.Upstream("failed to update project", err)
	}
	s.invalidateDiscover(ctx)
	return project, nil
}

// Delete removes an owned project together with its likes and comments
// in one transaction, so no orphaned rows survive.
func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID, requesterID string) error {
	if _, err := s.fetchOwned(ctx, id, requesterID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectComment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, "id = ?", id).Error
	})
	if err != nil {
		return apperror.Upstream("failed to delete project", err)
	}
	s.invalidateDiscover(ctx)
	return nil
}

// Like inserts a like row. A duplicate attempt is rejected with
// Conflict; the composite primary key is the authoritative guard, so a
// concurrent double-like can never produce two rows.
func (s *ProjectService) Like(ctx context.Context, projectID uuid.UUID, userID string) (*types.LikeState, error) {
	if _, err := s.fetch(ctx, projectID); err != nil {
		return nil, err
	}

	like := models.ProjectLike{ProjectID: projectID, UserID: userID}
	if err := s.db.WithContext(ctx).Create(&like).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("project already liked")
		}
		return nil, apperror.Upstream("failed to like project", err)
	}

	count, err := s.likeCount(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &types.LikeState{
		Message:   "project liked",
		Liked:     true,
		LikeCount: count,
		ChangedAt: time.Now(),
	}, nil
}

// Unlike removes the caller's like. Removing a like that does not exist
// is NotFound, mirroring the reject-duplicate discipline of Like.
func (s *ProjectService) Unlike(ctx context.Context, projectID uuid.UUID, userID string) (*types.LikeState, error) {
	if _, err := s.fetch(ctx, projectID); err != nil {
		return nil, err
	}

	res := s.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectLike{})
	if res.Error != nil {
		return nil, apperror.Upstream("failed to unlike project", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperror.NotFound("like", projectID.String())
	}

	count, err := s.likeCount(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &types.LikeState{
		Message:   "project unliked",
		Liked:     false,
		LikeCount: count,
		ChangedAt: time.Now(),
	}, nil
}

// Comments lists a project's comments, newest first, with authors.
func (s *ProjectService) Comments(ctx context.Context, projectID uuid.UUID) ([]types.CommentWithAuthor, error) {
	if _, err := s.fetch(ctx, projectID); err != nil {
		return nil, err
	}

	var comments []models.ProjectComment
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&comments).Error
	if err != nil {
		return nil, apperror.Upstream("failed to fetch comments", err)
	}

	out := make([]types.CommentWithAuthor, 0, len(comments))
	for _, c := range comments {
		out = append(out, commentWithAuthor(c))
	}
	return out, nil
}

// AddComment creates a comment on an existing project.
func (s *ProjectService) AddComment(ctx context.Context, projectID uuid.UUID, userID, text string) (*types.CommentWithAuthor, error) {
	if _, err := s.fetch(ctx, projectID); err != nil {
		return nil, err
	}

	comment := models.ProjectComment{
		ProjectID: projectID,
		UserID:    userID,
		Text:      text,
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, apperror.Upstream("failed to add comment", err)
	}

	if err := s.db.WithContext(ctx).Preload("User").First(&comment, "id = ?", comment.ID).Error; err != nil {
		return nil, apperror.Upstream("failed to load comment", err)
	}
	out := commentWithAuthor(comment)
	return &out, nil
}

// UpdateComment mutates an owned comment after checking it belongs to
// the addressed project.
func (s *ProjectService) UpdateComment(ctx context.Context, projectID, commentID uuid.UUID, userID, text string) (*types.CommentWithAuthor, error) {
	comment, err := s.fetchOwnedComment(ctx, projectID, commentID, userID)
	if err != nil {
		return nil, err
	}

	comment.Text = text
	if err := s.db.WithContext(ctx).Save(comment).Error; err != nil {
		return nil, apperror.Upstream("failed to update comment", err)
	}

	if err := s.db.WithContext(ctx).Preload("User").First(comment, "id = ?", comment.ID).Error; err != nil {
		return nil, apperror.Upstream("failed to load comment", err)
	}
	out := commentWithAuthor(*comment)
	return &out, nil
}

// DeleteComment removes an owned comment.
func (s *ProjectService) DeleteComment(ctx context.Context, projectID, commentID uuid.UUID, userID string) error {
	comment, err := s.fetchOwnedComment(ctx, projectID, commentID, userID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&models.ProjectComment{}, "id = ?", comment.ID).Error; err != nil {
		return apperror.Upstream("failed to delete comment", err)
	}
	return nil
}

func (s *ProjectService) fetch(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := s.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("project", id.String())
		}
		return nil, apperror.Upstream("failed to fetch project", err)
	}
	return &project, nil
}

func (s *ProjectService) fetchOwned(ctx context.Context, id uuid.UUID, requesterID string) (*models.Project, error) {
	project, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.AuthorID != requesterID {
		return nil, apperror.Forbidden("you can only modify your own projects")
	}
	return project, nil
}

func (s *ProjectService) fetchOwnedComment(ctx context.Context, projectID, commentID uuid.UUID, userID string) (*models.ProjectComment, error) {
	var comment models.ProjectComment
	if err := s.db.WithContext(ctx).First(&comment, "id = ?", commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("comment", commentID.String())
		}
		return nil, apperror.Upstream("failed to fetch comment", err)
	}
	if comment.UserID != userID {
		return nil, apperror.Forbidden("you can only modify your own comments")
	}
	if comment.ProjectID != projectID {
		return nil, apperror.ValidationFailed("commentId", "comment does not belong to this project")
	}
	return &comment, nil
}

func (s *ProjectService) likeCount(ctx context.Context, projectID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ProjectLike{}).
		Where("project_id = ?", projectID).
		Count(&count).Error
	if err != nil {
		return 0, apperror.Upstream("failed to count likes", err)
	}
	return count, nil
}

func (s *ProjectService) invalidateDiscover(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, discoverCacheKey).Err(); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate discover cache")
	}
}

func commentWithAuthor(c models.ProjectComment) types.CommentWithAuthor {
	out := types.CommentWithAuthor{ProjectComment: c}
	if c.User != nil {
		out.Author = c.User.Summary()
	}
	return out
}

type countRow struct {
	ProjectID uuid.UUID
	N         int64
}

// attachFeedMetadata decorates projects with author summaries and
// like/comment counts using grouped queries instead of per-project
// lookups. Pre-fetched authors may be passed in to skip the user query.
func attachFeedMetadata(ctx context.Context, db *gorm.DB, projects []models.Project, authors map[string]*models.User) ([]types.ProjectFeedItem, error) {
	items := make([]types.ProjectFeedItem, 0, len(projects))
	if len(projects) == 0 {
		return items, nil
	}

	projectIDs := make([]uuid.UUID, 0, len(projects))
	authorIDs := make([]string, 0, len(projects))
	for _, p := range projects {
		projectIDs = append(projectIDs, p.ID)
		if authors == nil || authors[p.AuthorID] == nil {
			authorIDs = append(authorIDs, p.AuthorID)
		}
	}

	if authors == nil {
		authors = make(map[string]*models.User)
	}
	if len(authorIDs) > 0 {
		var users []models.User
		if err := db.WithContext(ctx).Where("id IN ?", authorIDs).Find(&users).Error; err != nil {
			return nil, apperror.Upstream("failed to fetch authors", err)
		}
		for i := range users {
			authors[users[i].ID] = &users[i]
		}
	}

	likeCounts, err := groupCounts(ctx, db, &models.ProjectLike{}, projectIDs)
	if err != nil {
		return nil, err
	}
	commentCounts, err := groupCounts(ctx, db, &models.ProjectComment{}, projectIDs)
	if err != nil {
		return nil, err
	}

	for _, p := range projects {
		item := types.ProjectFeedItem{
			Project:      p,
			LikeCount:    likeCounts[p.ID],
			CommentCount: commentCounts[p.ID],
		}
		if author := authors[p.AuthorID]; author != nil {
			item.Author = author.Summary()
		}
		items = append(items, item)
	}
	return items, nil
}

func groupCounts(ctx context.Context, db *gorm.DB, model interface{}, projectIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	var rows []countRow
	err := db.WithContext(ctx).Model(model).
		Select("project_id, COUNT(*) AS n").
		Where("project_id IN ?", projectIDs).
		Group("project_id").
		Scan(&rows).Error
	if err != nil {
		return nil, apperror.Upstream("failed to count engagement", err)
	}
	counts := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		counts[r.ProjectID] = r.N
	}
	return counts, nil
}
