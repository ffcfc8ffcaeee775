package types

// SyncUserRequest carries the optional identity snapshot the client
// sends with POST /api/users/sync. Anything missing is derived from the
// verified token claims instead.
type SyncUserRequest struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	ImageURL  string `json:"image_url"`
}

// CompleteProfileRequest is the profile-completion form. Username and
// display name are mandatory; a successful submission flips
// is_profile_complete to true.
type CompleteProfileRequest struct {
	Username    string
	DisplayName string
	Headline    string
	Location    string
	Bio         string
	GithubURL   string
	LinkedinURL string
	WebsiteURL  string
}

// ProjectInput is the validated multipart form body for project
// create/update. Image URLs are handled separately by the media upload
// pipeline.
type ProjectInput struct {
	Title       string
	Description string
	Story       string
	TechStack   []string
	Tags        []string
	GithubURL   string
	LiveURL     string
	FigmaURL    string
	YoutubeURL  string
}
