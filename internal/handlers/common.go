package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/craftkart/identity/internal/models"
)

// ErrorResponse is the error body for all non-2xx responses. Clients
// surface Message verbatim.
type ErrorResponse struct {
	Message string `json:"message"`
}

// SuccessResponse is an empty-ish 2xx body for operations that return no
// entity.
type SuccessResponse struct {
	Message string `json:"message,omitempty"`
}

// UserEnvelope wraps a user entity in a response body.
type UserEnvelope struct {
	User *models.User `json:"user"`
}

// ActorContext records which role-scoped endpoint group handled the
// request. The same handlers serve /user, /admin and /super-admin.
func ActorContext(actor models.ActorKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("actor", actor)
		c.Next()
	}
}

func actorFrom(c *gin.Context) models.ActorKind {
	if value, exists := c.Get("actor"); exists {
		if actor, ok := value.(models.ActorKind); ok {
			return actor
		}
	}
	return models.ActorUser
}

// HealthCheck godoc
// @Summary Health check
// @Description Returns service liveness
// @Tags health
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /health [get]
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, SuccessResponse{Message: "ok"})
}
