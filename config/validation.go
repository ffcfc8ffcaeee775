package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks that everything the server cannot run without
// is present. Redis is deliberately not required.
func ValidateConfig(cfg *Config) error {
	var errors []string

	required := map[string]string{
		"DB_USER":                      cfg.DBUser,
		"DB_PASSWORD":                  cfg.DBPassword,
		"CLERK_JWT_KEY":                cfg.ClerkJWTKey,
		"CLERK_WEBHOOK_SIGNING_SECRET": cfg.ClerkWebhookSecret,
	}
	for name, value := range required {
		if value == "" {
			errors = append(errors, fmt.Sprintf("required environment variable %s is not set", name))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}
	return nil
}
