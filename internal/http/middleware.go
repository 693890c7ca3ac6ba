// Package http wires gin middleware and routes for the console and the
// customer dashboard.
package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cookiedeck/cookiedeck/internal/config"
	"github.com/cookiedeck/cookiedeck/internal/models"
	"github.com/cookiedeck/cookiedeck/internal/security"
	"github.com/cookiedeck/cookiedeck/internal/session"
)

// bearerToken extracts a Bearer token from the Authorization header.
func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// attachSession stores the session on the request context for services.
func attachSession(c *gin.Context, sess *session.Session) {
	c.Request = c.Request.WithContext(session.With(c.Request.Context(), sess))
}

// adminSession verifies an admin token and loads the current account. The
// stored role is re-read so role changes take effect on the next request,
// not at token expiry.
func adminSession(c *gin.Context, db *gorm.DB, jwtCfg config.JWTConfig) *session.Session {
	token := bearerToken(c)
	if token == "" {
		return nil
	}
	claims, errParse := security.ParseAdminToken(jwtCfg.Secret, token)
	if errParse != nil {
		return nil
	}
	var admin models.Admin
	if errFind := db.WithContext(c.Request.Context()).First(&admin, claims.AdminID).Error; errFind != nil {
		return nil
	}
	return &session.Session{
		UserID:  admin.ID,
		Email:   admin.Email,
		Role:    admin.Role,
		IsAdmin: true,
	}
}

// userSession verifies a customer token and loads the current account.
func userSession(c *gin.Context, db *gorm.DB, jwtCfg config.JWTConfig) *session.Session {
	token := bearerToken(c)
	if token == "" {
		return nil
	}
	claims, errParse := security.ParseUserToken(jwtCfg.Secret, token)
	if errParse != nil {
		return nil
	}
	var user models.User
	if errFind := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; errFind != nil {
		return nil
	}
	if !user.Active {
		return nil
	}
	return &session.Session{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        models.RoleUser,
	}
}

// AdminAuth requires a valid console token.
func AdminAuth(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := adminSession(c, db, jwtCfg)
		if sess == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		attachSession(c, sess)
		c.Next()
	}
}

// UserAuth requires a valid customer token.
func UserAuth(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := userSession(c, db, jwtCfg)
		if sess == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		attachSession(c, sess)
		c.Next()
	}
}

// AnyAuth accepts either a console or a customer token.
func AnyAuth(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := adminSession(c, db, jwtCfg)
		if sess == nil {
			sess = userSession(c, db, jwtCfg)
		}
		if sess == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		attachSession(c, sess)
		c.Next()
	}
}
