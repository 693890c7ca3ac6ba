package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/cookiedeck/cookiedeck/internal/apperr"
	"github.com/cookiedeck/cookiedeck/internal/session"
)

// respondError maps a service error onto the HTTP envelope. Server-side
// failures are logged; client errors are not.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// parseIDParam parses the :id path parameter, writing the error response on
// failure.
func parseIDParam(c *gin.Context) (uint64, bool) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// sessionFrom returns the session attached by the auth middleware.
func sessionFrom(c *gin.Context) *session.Session {
	sess, _ := session.FromContext(c.Request.Context())
	return sess
}
