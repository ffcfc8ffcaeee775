package models

import (
	"time"
)

// User mirrors an identity-provider subject into our own users table.
// The ID is the provider's opaque subject id, so rows are created either
// by the provider webhook or lazily on the first authenticated write.
type User struct {
	ID                string    `gorm:"size:64;primaryKey" json:"id"`
	Username          string    `gorm:"size:30;not null;uniqueIndex" json:"username"`
	DisplayName       string    `gorm:"size:100;not null" json:"display_name"`
	Email             string    `gorm:"size:255" json:"email,omitempty"`
	ProfilePicture    string    `gorm:"size:512" json:"profile_picture,omitempty"`
	Headline          string    `gorm:"size:150" json:"headline,omitempty"`
	Location          string    `gorm:"size:100" json:"location,omitempty"`
	Bio               string    `gorm:"type:text" json:"bio,omitempty"`
	GithubURL         string    `gorm:"size:255" json:"github_url,omitempty"`
	LinkedinURL       string    `gorm:"size:255" json:"linkedin_url,omitempty"`
	WebsiteURL        string    `gorm:"size:255" json:"website_url,omitempty"`
	IsProfileComplete bool      `gorm:"not null;default:false" json:"is_profile_complete"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// PublicUser is the subset of User safe to expose on public profile pages.
type PublicUser struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	DisplayName    string    `json:"display_name"`
	Headline       string    `json:"headline,omitempty"`
	Location       string    `json:"location,omitempty"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	GithubURL      string    `json:"github_url,omitempty"`
	LinkedinURL    string    `json:"linkedin_url,omitempty"`
	WebsiteURL     string    `json:"website_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Public strips private fields (email, completeness flag) from a User.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:             u.ID,
		Username:       u.Username,
		DisplayName:    u.DisplayName,
		Headline:       u.Headline,
		Location:       u.Location,
		ProfilePicture: u.ProfilePicture,
		Bio:            u.Bio,
		GithubURL:      u.GithubURL,
		LinkedinURL:    u.LinkedinURL,
		WebsiteURL:     u.WebsiteURL,
		CreatedAt:      u.CreatedAt,
	}
}

// AuthorSummary is the short author shape embedded in project and
// comment responses.
type AuthorSummary struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	DisplayName    string `json:"display_name"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

func (u *User) Summary() AuthorSummary {
	return AuthorSummary{
		ID:             u.ID,
		Username:       u.Username,
		DisplayName:    u.DisplayName,
		ProfilePicture: u.ProfilePicture,
	}
}
