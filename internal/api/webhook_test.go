package api

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/devhance/backend/internal/models"
	"github.com/devhance/backend/internal/service"
	"github.com/devhance/backend/internal/testhelpers"
)

const webhookTestSecret = "super-secret-signing-key"

func setupWebhookEnv(t *testing.T) (*gin.Engine, *gorm.DB) {
	gin.SetMode(gin.TestMode)
	db := testhelpers.SetupTestDatabase(t)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	secret := "whsec_" + base64.StdEncoding.EncodeToString([]byte(webhookTestSecret))
	identitySvc, err := service.NewIdentityService(string(pemKey), secret)
	require.NoError(t, err)

	handler := NewWebhookHandler(identitySvc, service.NewUserService(db))
	router := gin.New()
	handler.RegisterRoutes(router.Group("/api"))
	return router, db
}

func signWebhook(msgID, timestamp string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(webhookTestSecret))
	fmt.Fprintf(mac, "%s.%s.", msgID, timestamp)
	mac.Write(payload)
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func postWebhook(router *gin.Engine, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/clerk", bytes.NewReader(payload))
	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	req.Header.Set("svix-id", "msg_1")
	req.Header.Set("svix-timestamp", timestamp)
	if signature == "" {
		signature = signWebhook("msg_1", timestamp, payload)
	}
	req.Header.Set("svix-signature", signature)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestWebhookUserCreated(t *testing.T) {
	router, db := setupWebhookEnv(t)

	payload := []byte(`{
		"type": "user.created",
		"data": {
			"id": "user_abc",
			"username": "alice",
			"first_name": "Alice",
			"last_name": "Anders",
			"image_url": "https://img.test/a.png",
			"email_addresses": [{"email_address": "alice@example.com"}]
		}
	}`)
	w := postWebhook(router, payload, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var user models.User
	require.NoError(t, db.First(&user, "id = ?", "user_abc").Error)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "Alice Anders", user.DisplayName)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.False(t, user.IsProfileComplete)
}

func TestWebhookBadSignature(t *testing.T) {
	router, db := setupWebhookEnv(t)

	payload := []byte(`{"type": "user.created", "data": {"id": "user_abc", "username": "alice"}}`)
	w := postWebhook(router, payload, "v1,"+base64.StdEncoding.EncodeToString([]byte("forged")))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Zero(t, count)
}

func TestWebhookUserUpdated(t *testing.T) {
	router, db := setupWebhookEnv(t)
	require.NoError(t, db.Create(&models.User{ID: "user_abc", Username: "alice", DisplayName: "Alice"}).Error)

	payload := []byte(`{
		"type": "user.updated",
		"data": {
			"id": "user_abc",
			"username": "alice2",
			"first_name": "Alice",
			"last_name": "Updated"
		}
	}`)
	w := postWebhook(router, payload, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var user models.User
	require.NoError(t, db.First(&user, "id = ?", "user_abc").Error)
	assert.Equal(t, "alice2", user.Username)
	assert.Equal(t, "Alice Updated", user.DisplayName)
}

func TestWebhookUserDeletedCascades(t *testing.T) {
	router, db := setupWebhookEnv(t)
	require.NoError(t, db.Create(&models.User{ID: "user_abc", Username: "alice"}).Error)
	require.NoError(t, db.Create(&models.User{ID: "user_def", Username: "bob"}).Error)

	project := &models.Project{Title: "Foo", Description: "d", Story: "s", AuthorID: "user_abc", IsPublic: true}
	require.NoError(t, db.Create(project).Error)
	require.NoError(t, db.Create(&models.ProjectLike{ProjectID: project.ID, UserID: "user_def"}).Error)
	require.NoError(t, db.Create(&models.ProjectComment{ProjectID: project.ID, UserID: "user_def", Text: "hi"}).Error)

	payload := []byte(`{"type": "user.deleted", "data": {"id": "user_abc"}}`)
	w := postWebhook(router, payload, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var users, projects, likes, comments int64
	db.Model(&models.User{}).Where("id = ?", "user_abc").Count(&users)
	db.Model(&models.Project{}).Count(&projects)
	db.Model(&models.ProjectLike{}).Count(&likes)
	db.Model(&models.ProjectComment{}).Count(&comments)
	assert.Zero(t, users)
	assert.Zero(t, projects)
	assert.Zero(t, likes)
	assert.Zero(t, comments)
}

func TestWebhookCreatedRacesExistingRow(t *testing.T) {
	router, db := setupWebhookEnv(t)
	// The lazy-creation path already inserted this row.
	require.NoError(t, db.Create(&models.User{ID: "user_abc", Username: "placeholder"}).Error)

	payload := []byte(`{
		"type": "user.created",
		"data": {"id": "user_abc", "username": "alice", "first_name": "Alice"}
	}`)
	w := postWebhook(router, payload, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var user models.User
	require.NoError(t, db.First(&user, "id = ?", "user_abc").Error)
	assert.Equal(t, "alice", user.Username)

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestWebhookUnhandledEventAccepted(t *testing.T) {
	router, _ := setupWebhookEnv(t)
	payload := []byte(`{"type": "session.created", "data": {"id": "sess_1"}}`)
	w := postWebhook(router, payload, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
