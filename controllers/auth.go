package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"polizas-backend/models"
	"polizas-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AuthController struct {
	DB        *gorm.DB
	JWTSecret string
	TokenTTL  time.Duration
	Logger    *zap.Logger
}

type RegisterInput struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name" binding:"omitempty,min=2,max=50"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// controllers/auth.go
func (h *AuthController) Register(c *gin.Context) {
	var input RegisterInput

	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Datos inválidos: "+err.Error())
		return
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))

	var existingUser models.User
	result := h.DB.Where("email = ?", email).First(&existingUser)
	if result.Error == nil {
		utils.RespondWithError(c, http.StatusConflict, "El email ya está registrado")
		return
	} else if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Error de base de datos")
		return
	}

	newUser := models.User{
		Email:       email,
		Password:    input.Password, // hashed in BeforeCreate
		DisplayName: strings.TrimSpace(input.DisplayName),
		IsActive:    true,
	}
	if err := h.DB.Create(&newUser).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			utils.RespondWithError(c, http.StatusConflict, "El email ya está registrado")
			return
		}
		h.Logger.Error("failed to create user", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Error al crear el usuario")
		return
	}

	token, err := h.issueToken(c, newUser)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Error al generar el token")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registro exitoso",
		"token":   token,
		"user":    userPayload(newUser),
	})
}

func (h *AuthController) Login(c *gin.Context) {
	var input LoginInput

	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Datos inválidos")
		return
	}

	var user models.User
	result := h.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusUnauthorized, "Credenciales inválidas")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Error de base de datos")
		}
		return
	}

	if !user.IsActive || !utils.CheckPasswordHash(input.Password, user.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Credenciales inválidas")
		return
	}

	token, err := h.issueToken(c, user)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Error al generar el token")
		return
	}

	now := time.Now()
	if err := h.DB.Model(&user).Update("last_login", &now).Error; err != nil {
		h.Logger.Warn("failed to update last login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userPayload(user),
	})
}

func (h *AuthController) Me(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userPayload(user)})
}

func (h *AuthController) issueToken(c *gin.Context, user models.User) (string, error) {
	token, err := utils.GenerateToken(user.ID.String(), h.JWTSecret, h.TokenTTL)
	if err != nil {
		h.Logger.Error("failed to generate token", zap.Error(err))
		return "", err
	}
	c.SetCookie("token", token, int(h.TokenTTL.Seconds()), "/", "", true, true)
	return token, nil
}

func (h *AuthController) currentUser(c *gin.Context) (models.User, bool) {
	userID, ok := utils.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "Usuario no autenticado")
		return models.User{}, false
	}
	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Usuario no autenticado")
		return models.User{}, false
	}
	return user, true
}

func userPayload(u models.User) gin.H {
	return gin.H{
		"id":           u.ID,
		"email":        u.Email,
		"display_name": u.ResolvedDisplayName(),
		"has_profile":  strings.TrimSpace(u.DisplayName) != "",
	}
}
