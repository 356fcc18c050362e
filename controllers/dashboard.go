package controllers

import (
	"net/http"

	"polizas-backend/models"
	"polizas-backend/services"
	"polizas-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type DashboardOverview struct {
	TotalClients   int64            `json:"totalClients"`
	TotalPolicies  int64            `json:"totalPolicies"`
	TotalCompanies int64            `json:"totalCompanies"`
	ByStatus       map[string]int64 `json:"byStatus"`
	Overdue        int64            `json:"overdue"`
	DueThisWindow  int64            `json:"dueThisWindow"`
}

type DashboardController struct {
	DB      *gorm.DB
	Notices *services.NoticeService
	Logger  *zap.Logger
}

func (h *DashboardController) GetDashboardOverview(c *gin.Context) {
	db := h.DB.WithContext(c.Request.Context())
	today := h.Notices.Today()
	horizon := today.AddDays(h.Notices.WindowDays())

	overview := DashboardOverview{
		ByStatus: map[string]int64{
			string(models.StatusAvisar):  0,
			string(models.StatusAvisado): 0,
			string(models.StatusPagado):  0,
		},
	}

	counts := []struct {
		model any
		dest  *int64
	}{
		{&models.Client{}, &overview.TotalClients},
		{&models.Policy{}, &overview.TotalPolicies},
		{&models.Company{}, &overview.TotalCompanies},
	}
	for _, q := range counts {
		if err := db.Model(q.model).Count(q.dest).Error; err != nil {
			h.fail(c, err)
			return
		}
	}

	var rows []struct {
		Status string
		Total  int64
	}
	if err := db.Model(&models.PolicyNotice{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error; err != nil {
		h.fail(c, err)
		return
	}
	for _, r := range rows {
		overview.ByStatus[r.Status] = r.Total
	}

	pending := []models.NoticeStatus{models.StatusAvisar, models.StatusAvisado}
	if err := db.Model(&models.PolicyNotice{}).
		Where("status IN ? AND due_date < ?", pending, today).
		Count(&overview.Overdue).Error; err != nil {
		h.fail(c, err)
		return
	}
	if err := db.Model(&models.PolicyNotice{}).
		Where("status IN ? AND due_date BETWEEN ? AND ?", pending, today, horizon).
		Count(&overview.DueThisWindow).Error; err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}

func (h *DashboardController) fail(c *gin.Context, err error) {
	h.Logger.Error("error building dashboard", zap.Error(err))
	utils.RespondWithError(c, http.StatusInternalServerError, "Error al obtener el resumen")
}
