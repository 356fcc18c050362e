package controllers

import (
	"errors"
	"net/http"

	"polizas-backend/services"
	"polizas-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondError writes err as {"error": "..."} with the matching status.
// Validation errors also carry the per-field messages.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":  services.Message(err),
			"fields": verr.Fields,
		})
		return
	}
	utils.RespondWithError(c, services.HTTPStatus(err), services.Message(err))
}

func parseIDParam(c *gin.Context, name, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, message)
		return uuid.Nil, false
	}
	return id, true
}

// currentIdentity resolves the authenticated staff member. It writes the
// error response itself and returns nil when there is none.
func currentIdentity(c *gin.Context, identities services.IdentityResolver) *services.Identity {
	userID, ok := utils.UserIDFromContext(c)
	if !ok {
		respondError(c, services.ErrNotAuthenticated)
		return nil
	}
	identity, err := identities.Resolve(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return nil
	}
	return identity
}
