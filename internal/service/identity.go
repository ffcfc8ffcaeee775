package service

import (
	"crypto/hmac"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/devhance/backend/internal/apperror"
	"github.com/devhance/backend/internal/types"
)

// webhookTolerance bounds how stale a webhook timestamp may be before
// the event is rejected as a possible replay.
const webhookTolerance = 5 * time.Minute

// IdentityService verifies session tokens against the identity
// provider's published RSA key and webhook payloads against the shared
// signing secret. It never issues tokens.
type IdentityService struct {
	jwtKey        *rsa.PublicKey
	webhookSecret []byte
	now           func() time.Time
}

var _ IIdentityService = (*IdentityService)(nil)

// NewIdentityService parses the provider's PEM-encoded public key and
// the webhook signing secret (the provider prefixes it with "whsec_"
// and base64-encodes the key material).
func NewIdentityService(jwtKeyPEM, webhookSecret string) (*IdentityService, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(jwtKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("failed to parse identity provider public key: %w", err)
	}

	secret, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(webhookSecret, "whsec_"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode webhook signing secret: %w", err)
	}

	return &IdentityService{
		jwtKey:        key,
		webhookSecret: secret,
		now:           time.Now,
	}, nil
}

// VerifyToken checks the bearer token's signature and expiry and
// extracts the subject and optional email/username claims.
func (s *IdentityService) VerifyToken(tokenString string) (*types.IdentityClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtKey, nil
	}, jwt.WithValidMethods([]string{"RS256"}))
	if err != nil {
		return nil, apperror.Unauthorized("token is not valid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, apperror.Unauthorized("token is not valid")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, apperror.Unauthorized("token has no subject")
	}

	identity := &types.IdentityClaims{Subject: sub}
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}
	if username, ok := claims["username"].(string); ok {
		identity.Username = username
	}
	return identity, nil
}

// VerifyWebhook validates the provider's webhook signature scheme: an
// HMAC-SHA256 over "<id>.<timestamp>.<payload>" carried base64-encoded
// in the svix-signature header as space-separated "v1,<sig>" entries.
func (s *IdentityService) VerifyWebhook(headers http.Header, payload []byte) (*types.WebhookEvent, error) {
	msgID := headers.Get("svix-id")
	timestamp := headers.Get("svix-timestamp")
	signatures := headers.Get("svix-signature")
	if msgID == "" || timestamp == "" || signatures == "" {
		return nil, apperror.Unauthorized("missing webhook signature headers")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return nil, apperror.Unauthorized("invalid webhook timestamp")
	}
	age := s.now().Sub(time.Unix(ts, 0))
	if age > webhookTolerance || age < -webhookTolerance {
		return nil, apperror.Unauthorized("webhook timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, s.webhookSecret)
	fmt.Fprintf(mac, "%s.%s.", msgID, timestamp)
	mac.Write(payload)
	expected := mac.Sum(nil)

	if !matchSignature(expected, signatures) {
		return nil, apperror.Unauthorized("webhook signature mismatch")
	}

	var event types.WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, apperror.ValidationFailed("payload", "malformed webhook payload")
	}
	return &event, nil
}

func matchSignature(expected []byte, header string) bool {
	for _, entry := range strings.Fields(header) {
		parts := strings.SplitN(entry, ",", 2)
		if len(parts) != 2 || parts[0] != "v1" {
			continue
		}
		sig, err := base64.StdEncoding.DecodeString(parts[1])
		if err != nil {
			continue
		}
		if hmac.Equal(expected, sig) {
			return true
		}
	}
	return false
}
