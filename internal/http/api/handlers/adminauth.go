package handlers

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"gorm.io/gorm"

	"github.com/cookiedeck/cookiedeck/internal/access"
	"github.com/cookiedeck/cookiedeck/internal/config"
	"github.com/cookiedeck/cookiedeck/internal/models"
	"github.com/cookiedeck/cookiedeck/internal/security"
)

// totpIssuer is the issuer shown in authenticator apps.
const totpIssuer = "CookieDeck"

// secretEntry is a pending TOTP secret awaiting confirmation.
type secretEntry struct {
	secret  string
	expires time.Time
}

// secretStore keeps temporary TOTP secrets in memory.
type secretStore struct {
	mu    sync.Mutex
	items map[string]secretEntry
}

// newSecretStore creates an empty secret store.
func newSecretStore() *secretStore {
	return &secretStore{items: make(map[string]secretEntry)}
}

// Set stores a secret with expiry.
func (s *secretStore) Set(key, secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = secretEntry{secret: secret, expires: time.Now().Add(10 * time.Minute)}
}

// Get returns a secret if present and not expired.
func (s *secretStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.items[key]
	if !ok {
		return "", false
	}
	if time.Now().After(entry.expires) {
		delete(s.items, key)
		return "", false
	}
	return entry.secret, true
}

// Delete removes a secret entry.
func (s *secretStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

// totpPendingSecrets stores pending TOTP secrets for confirmation.
var totpPendingSecrets = newSecretStore()

// AdminAuthHandler serves console login and TOTP enrollment.
type AdminAuthHandler struct {
	db     *gorm.DB
	access *access.Service
	jwtCfg config.JWTConfig
}

// NewAdminAuthHandler constructs an AdminAuthHandler.
func NewAdminAuthHandler(db *gorm.DB, acc *access.Service, jwtCfg config.JWTConfig) *AdminAuthHandler {
	return &AdminAuthHandler{db: db, access: acc, jwtCfg: jwtCfg}
}

// adminLoginRequest carries console credentials, with an optional TOTP code.
type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

// respondWithAdminToken issues a console JWT for the given account.
func (h *AdminAuthHandler) respondWithAdminToken(c *gin.Context, admin *models.Admin) {
	token, errSign := security.GenerateAdminToken(h.jwtCfg.Secret, admin.ID, admin.Email, admin.Role, h.jwtCfg.Expiry())
	if errSign != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign token failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"admin": gin.H{
			"id":    admin.ID,
			"email": admin.Email,
			"role":  admin.Role,
		},
	})
}

// Login verifies console credentials. Accounts with TOTP enabled are bounced
// to the TOTP login endpoint.
func (h *AdminAuthHandler) Login(c *gin.Context) {
	var body adminLoginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	admin, errAuth := h.access.Authenticate(c.Request.Context(), body.Email, body.Password)
	if errAuth != nil {
		respondError(c, errAuth)
		return
	}
	if strings.TrimSpace(admin.TOTPSecret) != "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "mfa required"})
		return
	}
	h.respondWithAdminToken(c, admin)
}

// TOTPLogin verifies console credentials together with a TOTP code.
func (h *AdminAuthHandler) TOTPLogin(c *gin.Context) {
	var body adminLoginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	admin, errAuth := h.access.Authenticate(c.Request.Context(), body.Email, body.Password)
	if errAuth != nil {
		respondError(c, errAuth)
		return
	}
	if strings.TrimSpace(admin.TOTPSecret) == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "totp not enabled"})
		return
	}
	if !totp.Validate(strings.TrimSpace(body.Code), admin.TOTPSecret) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid code"})
		return
	}
	h.respondWithAdminToken(c, admin)
}

// TOTPPrepare generates a fresh secret for the signed-in admin and returns
// the otpauth URL plus a QR image. The secret only sticks after confirmation.
func (h *AdminAuthHandler) TOTPPrepare(c *gin.Context) {
	sess := sessionFrom(c)
	admin, errGet := h.access.Get(c.Request.Context(), sess.UserID)
	if errGet != nil {
		respondError(c, errGet)
		return
	}
	if strings.TrimSpace(admin.TOTPSecret) != "" {
		c.JSON(http.StatusConflict, gin.H{"error": "totp already enabled"})
		return
	}

	key, errGen := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: admin.Email,
	})
	if errGen != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generate totp secret failed"})
		return
	}

	totpPendingSecrets.Set(fmt.Sprintf("%d", admin.ID), key.Secret())
	qrImage := ""
	if img, errImage := key.Image(220, 220); errImage == nil {
		var buf bytes.Buffer
		if errEncode := png.Encode(&buf, img); errEncode == nil {
			qrImage = "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"secret":   key.Secret(),
		"url":      key.URL(),
		"qr_image": qrImage,
	})
}

// totpCodeRequest carries a TOTP code for confirmation or disabling.
type totpCodeRequest struct {
	Code string `json:"code"`
}

// TOTPConfirm validates the code against the pending secret and enables MFA.
func (h *AdminAuthHandler) TOTPConfirm(c *gin.Context) {
	sess := sessionFrom(c)
	var body totpCodeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	key := fmt.Sprintf("%d", sess.UserID)
	secret, ok := totpPendingSecrets.Get(key)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "totp setup expired"})
		return
	}
	if !totp.Validate(strings.TrimSpace(body.Code), secret) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid code"})
		return
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.Admin{}).
		Where("id = ?", sess.UserID).
		Update("totp_secret", secret).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}

	totpPendingSecrets.Delete(key)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// TOTPDisable turns MFA off after validating a current code.
func (h *AdminAuthHandler) TOTPDisable(c *gin.Context) {
	sess := sessionFrom(c)
	var body totpCodeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	admin, errGet := h.access.Get(c.Request.Context(), sess.UserID)
	if errGet != nil {
		respondError(c, errGet)
		return
	}
	if strings.TrimSpace(admin.TOTPSecret) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "totp not enabled"})
		return
	}
	if !totp.Validate(strings.TrimSpace(body.Code), admin.TOTPSecret) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid code"})
		return
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.Admin{}).
		Where("id = ?", sess.UserID).
		Update("totp_secret", "").Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
