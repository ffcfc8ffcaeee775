package types

import "strings"

// IdentityClaims are the verified claims extracted from an identity
// provider session token.
type IdentityClaims struct {
	Subject  string `json:"sub"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
}

// Identity provider webhook event types mirrored into the users table.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// WebhookEvent is a signature-verified identity provider event.
type WebhookEvent struct {
	Type string          `json:"type"`
	Data WebhookUserData `json:"data"`
}

// WebhookUserData is the user payload the identity provider sends with
// user.* events. Timestamps are epoch milliseconds.
type WebhookUserData struct {
	ID             string         `json:"id"`
	Username       string         `json:"username"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	ImageURL       string         `json:"image_url"`
	EmailAddresses []WebhookEmail `json:"email_addresses"`
	CreatedAt      int64          `json:"created_at"`
	UpdatedAt      int64          `json:"updated_at"`
}

type WebhookEmail struct {
	EmailAddress string `json:"email_address"`
}

// PrimaryEmail returns the first email address, if any.
func (d *WebhookUserData) PrimaryEmail() string {
	if len(d.EmailAddresses) == 0 {
		return ""
	}
	return d.EmailAddresses[0].EmailAddress
}

// DisplayName derives a display name from the provider's name fields,
// falling back to the username.
func (d *WebhookUserData) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(d.FirstName) + " " + strings.TrimSpace(d.LastName))
	if name != "" {
		return name
	}
	if d.Username != "" {
		return d.Username
	}
	return "User"
}
