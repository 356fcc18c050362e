package controllers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"polizas-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SetupProfileInput struct {
	DisplayName string `json:"display_name"`
}

// ValidateDisplayName returns the form error for a display name, or "".
func ValidateDisplayName(name string) string {
	name = strings.TrimSpace(name)
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		return "El nombre es requerido"
	case n < 2:
		return "El nombre debe tener al menos 2 caracteres"
	case n > 50:
		return "El nombre no puede tener más de 50 caracteres"
	}
	return ""
}

func (h *AuthController) GetProfile(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, userPayload(user))
}

func (h *AuthController) SetupProfile(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var input SetupProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Datos inválidos")
		return
	}
	if msg := ValidateDisplayName(input.DisplayName); msg != "" {
		utils.RespondWithError(c, http.StatusBadRequest, msg)
		return
	}

	user.DisplayName = strings.TrimSpace(input.DisplayName)
	if err := h.DB.Model(&user).Update("display_name", user.DisplayName).Error; err != nil {
		h.Logger.Error("failed to update profile", zap.String("user_id", user.ID.String()), zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Error al guardar el perfil")
		return
	}

	c.JSON(http.StatusOK, userPayload(user))
}
