package service

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIdentityService(t *testing.T) (*IdentityService, *rsa.PrivateKey, []byte) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	secret := []byte("test-signing-secret")
	svc, err := NewIdentityService(string(pemKey), "whsec_"+base64.StdEncoding.EncodeToString(secret))
	require.NoError(t, err)
	return svc, key, secret
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestVerifyTokenValid(t *testing.T) {
	svc, key, _ := newTestIdentityService(t)

	token := signToken(t, key, jwt.MapClaims{
		"sub":      "user_abc",
		"email":    "a@example.com",
		"username": "alice",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user_abc", claims.Subject)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "alice", claims.Username)
}

func TestVerifyTokenExpired(t *testing.T) {
	svc, key, _ := newTestIdentityService(t)

	token := signToken(t, key, jwt.MapClaims{
		"sub": "user_abc",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	_, err := svc.VerifyToken(token)
	assert.Error(t, err)
}

func TestVerifyTokenWrongKey(t *testing.T) {
	svc, _, _ := newTestIdentityService(t)

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	token := signToken(t, otherKey, jwt.MapClaims{"sub": "user_abc"})

	_, err = svc.VerifyToken(token)
	assert.Error(t, err)
}

func TestVerifyTokenRejectsHMAC(t *testing.T) {
	svc, _, secret := newTestIdentityService(t)

	// A symmetric token must never verify against the RSA key.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user_abc"})
	signed, err := token.SignedString(secret)
	require.NoError(t, err)

	_, err = svc.VerifyToken(signed)
	assert.Error(t, err)
}

func TestVerifyTokenMissingSubject(t *testing.T) {
	svc, key, _ := newTestIdentityService(t)

	token := signToken(t, key, jwt.MapClaims{"email": "a@example.com"})
	_, err := svc.VerifyToken(token)
	assert.Error(t, err)
}

func webhookHeaders(secret []byte, msgID, timestamp string, payload []byte) http.Header {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%s.%s.", msgID, timestamp)
	mac.Write(payload)

	headers := http.Header{}
	headers.Set("svix-id", msgID)
	headers.Set("svix-timestamp", timestamp)
	headers.Set("svix-signature", "v1,"+base64.StdEncoding.EncodeToString(mac.Sum(nil)))
	return headers
}

func TestVerifyWebhookRoundtrip(t *testing.T) {
	svc, _, secret := newTestIdentityService(t)

	payload := []byte(`{"type":"user.created","data":{"id":"user_abc"}}`)
	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	headers := webhookHeaders(secret, "msg_1", timestamp, payload)

	event, err := svc.VerifyWebhook(headers, payload)
	require.NoError(t, err)
	assert.Equal(t, "user.created", event.Type)
	assert.Equal(t, "user_abc", event.Data.ID)
}

func TestVerifyWebhookTamperedPayload(t *testing.T) {
	svc, _, secret := newTestIdentityService(t)

	payload := []byte(`{"type":"user.created","data":{"id":"user_abc"}}`)
	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	headers := webhookHeaders(secret, "msg_1", timestamp, payload)

	tampered := []byte(`{"type":"user.deleted","data":{"id":"user_abc"}}`)
	_, err := svc.VerifyWebhook(headers, tampered)
	assert.Error(t, err)
}

func TestVerifyWebhookStaleTimestamp(t *testing.T) {
	svc, _, secret := newTestIdentityService(t)
	svc.now = func() time.Time { return time.Now().Add(10 * time.Minute) }

	payload := []byte(`{"type":"user.created","data":{"id":"user_abc"}}`)
	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	headers := webhookHeaders(secret, "msg_1", timestamp, payload)

	_, err := svc.VerifyWebhook(headers, payload)
	assert.Error(t, err)
}

func TestVerifyWebhookMissingHeaders(t *testing.T) {
	svc, _, _ := newTestIdentityService(t)

	payload := []byte(`{}`)
	_, err := svc.VerifyWebhook(http.Header{}, payload)
	assert.Error(t, err)
}

func TestVerifyWebhookMultipleSignatures(t *testing.T) {
	svc, _, secret := newTestIdentityService(t)

	payload := []byte(`{"type":"user.created","data":{"id":"user_abc"}}`)
	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	headers := webhookHeaders(secret, "msg_1", timestamp, payload)

	// A rotated-key header carries several entries; one valid match is
	// enough.
	valid := headers.Get("svix-signature")
	headers.Set("svix-signature", "v1,"+base64.StdEncoding.EncodeToString([]byte("old-key-sig"))+" "+valid)

	_, err := svc.VerifyWebhook(headers, payload)
	assert.NoError(t, err)
}

func TestNewIdentityServiceBadKey(t *testing.T) {
	_, err := NewIdentityService("not a pem key", "whsec_dGVzdA==")
	assert.Error(t, err)
}
