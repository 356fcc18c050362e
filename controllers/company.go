package controllers

import (
	"errors"
	"net/http"
	"strings"

	"polizas-backend/models"
	"polizas-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CompanyController struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

type CompanyInput struct {
	Name string `json:"name" binding:"required"`
}

func (h *CompanyController) ListCompanies(c *gin.Context) {
	var companies []models.Company
	if err := h.DB.WithContext(c.Request.Context()).Order("name").Find(&companies).Error; err != nil {
		h.Logger.Error("error fetching companies", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Error al obtener las compañías")
		return
	}
	c.JSON(http.StatusOK, companies)
}

func (h *CompanyController) CreateCompany(c *gin.Context) {
	name, ok := bindCompanyName(c)
	if !ok {
		return
	}
	company := models.Company{Name: name}
	if err := h.DB.WithContext(c.Request.Context()).Create(&company).Error; err != nil {
		h.respondStoreError(c, err, "Error al crear la compañía")
		return
	}
	c.JSON(http.StatusCreated, company)
}

func (h *CompanyController) UpdateCompany(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "ID de compañía inválido")
	if !ok {
		return
	}
	name, ok := bindCompanyName(c)
	if !ok {
		return
	}

	var company models.Company
	if err := h.DB.WithContext(c.Request.Context()).First(&company, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Compañía no encontrada")
			return
		}
		utils.RespondWithError(c, http.StatusInternalServerError, "Error al obtener la compañía")
		return
	}

	if err := h.DB.WithContext(c.Request.Context()).Model(&company).Update("name", name).Error; err != nil {
		h.respondStoreError(c, err, "Error al actualizar la compañía")
		return
	}
	company.Name = name
	c.JSON(http.StatusOK, company)
}

func (h *CompanyController) respondStoreError(c *gin.Context, err error, message string) {
	if utils.IsUniqueViolation(err) {
		utils.RespondWithError(c, http.StatusConflict, "Ya existe una compañía con ese nombre")
		return
	}
	h.Logger.Error("company write failed", zap.Error(err))
	utils.RespondWithError(c, http.StatusInternalServerError, message)
}

func bindCompanyName(c *gin.Context) (string, bool) {
	var input CompanyInput
	if err := c.ShouldBindJSON(&input); err != nil || strings.TrimSpace(input.Name) == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "El nombre de la compañía es requerido")
		return "", false
	}
	return strings.TrimSpace(input.Name), true
}
