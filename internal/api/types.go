package api

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/devhance/backend/internal/apperror"
	"github.com/devhance/backend/internal/types"
)

const (
	maxTitleLength    = 100
	maxCommentLength  = 2000
	minUsernameLength = 3
	maxUsernameLength = 30
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// identityFromContext reads the claims stored by the auth middleware.
func identityFromContext(c *gin.Context) *types.IdentityClaims {
	return &types.IdentityClaims{
		Subject:  c.GetString("user_id"),
		Email:    c.GetString("user_email"),
		Username: c.GetString("user_username"),
	}
}

// parseProjectForm validates the multipart project form. Unknown fields
// are ignored; malformed or missing required fields reject the request
// before anything is uploaded or written.
func parseProjectForm(c *gin.Context) (*types.ProjectInput, error) {
	in := &types.ProjectInput{
		Title:       strings.TrimSpace(c.PostForm("title")),
		Description: strings.TrimSpace(c.PostForm("description")),
		Story:       strings.TrimSpace(c.PostForm("story")),
		TechStack:   parseStringList(c.PostForm("tech_stack")),
		Tags:        parseStringList(c.PostForm("tags")),
		GithubURL:   strings.TrimSpace(c.PostForm("github_url")),
		LiveURL:     strings.TrimSpace(c.PostForm("live_url")),
		FigmaURL:    strings.TrimSpace(c.PostForm("figma_url")),
		YoutubeURL:  strings.TrimSpace(c.PostForm("youtube_url")),
	}

	if in.Title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if len(in.Title) > maxTitleLength {
		return nil, apperror.ValidationFailed("title", "title must be at most 100 characters")
	}
	if in.Description == "" {
		return nil, apperror.ValidationFailed("description", "description is required")
	}
	if in.Story == "" {
		return nil, apperror.ValidationFailed("story", "story is required")
	}
	return in, nil
}

// parseStringList accepts either a JSON array or a comma-separated
// list, since clients send both shapes.
func parseStringList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	if strings.HasPrefix(raw, "[") {
		var out []string
		if json.Unmarshal([]byte(raw), &out) == nil {
			return out
		}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseProfileForm validates the profile-completion form.
func parseProfileForm(c *gin.Context) (*types.CompleteProfileRequest, error) {
	req := &types.CompleteProfileRequest{
		Username:    strings.ToLower(strings.TrimSpace(c.PostForm("username"))),
		DisplayName: strings.TrimSpace(c.PostForm("display_name")),
		Headline:    strings.TrimSpace(c.PostForm("headline")),
		Location:    strings.TrimSpace(c.PostForm("location")),
		Bio:         strings.TrimSpace(c.PostForm("bio")),
		GithubURL:   strings.TrimSpace(c.PostForm("github_url")),
		LinkedinURL: strings.TrimSpace(c.PostForm("linkedin_url")),
		WebsiteURL:  strings.TrimSpace(c.PostForm("website_url")),
	}

	if err := validateUsername(req.Username); err != nil {
		return nil, err
	}
	if req.DisplayName == "" {
		return nil, apperror.ValidationFailed("display_name", "display name is required")
	}
	return req, nil
}

func validateUsername(username string) error {
	if username == "" {
		return apperror.ValidationFailed("username", "username is required")
	}
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return apperror.ValidationFailed("username", "username must be between 3 and 30 characters")
	}
	if !usernamePattern.MatchString(username) {
		return apperror.ValidationFailed("username", "username may only contain lowercase letters, numbers, hyphens and underscores")
	}
	return nil
}

func validateCommentText(text string) error {
	if text == "" {
		return apperror.ValidationFailed("text", "comment text is required")
	}
	if len(text) > maxCommentLength {
		return apperror.ValidationFailed("text", "comment must be at most 2000 characters")
	}
	return nil
}
