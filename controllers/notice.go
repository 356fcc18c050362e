// controllers/notice.go
package controllers

import (
	"net/http"

	"polizas-backend/models"
	"polizas-backend/services"
	"polizas-backend/utils"

	"github.com/gin-gonic/gin"
)

type NoticeController struct {
	Notices    *services.NoticeService
	Reminders  *services.ReminderService
	Identities services.IdentityResolver
}

type UpdateNoticeStatusInput struct {
	Status models.NoticeStatus `json:"status" binding:"required,oneof=avisar avisado pagado"`
}

type RecordPaymentInput struct {
	Installments int `json:"installments" binding:"required,min=1"`
}

type AddNoteInput struct {
	Note string `json:"note" binding:"required"`
}

// ListNotices returns the notice board. The frontend polls it, so it is
// never cached.
func (h *NoticeController) ListNotices(c *gin.Context) {
	result, err := h.Notices.ListNoticesForDisplay(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, result)
}

func (h *NoticeController) GetNotice(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "ID de aviso inválido")
	if !ok {
		return
	}
	notice, err := h.Notices.GetNotice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notice)
}

func (h *NoticeController) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "ID de aviso inválido")
	if !ok {
		return
	}
	var input UpdateNoticeStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Estado de aviso inválido")
		return
	}
	actor := currentIdentity(c, h.Identities)
	if actor == nil {
		return
	}

	result, err := h.Notices.UpdateNoticeStatus(c.Request.Context(), actor, id, input.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *NoticeController) RecordPayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "ID de aviso inválido")
	if !ok {
		return
	}
	var input RecordPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, services.ErrInvalidInstallments)
		return
	}
	actor := currentIdentity(c, h.Identities)
	if actor == nil {
		return
	}

	result, err := h.Notices.RecordPayment(c.Request.Context(), actor, id, input.Installments)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *NoticeController) RetryRollover(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "ID de aviso inválido")
	if !ok {
		return
	}
	actor := currentIdentity(c, h.Identities)
	if actor == nil {
		return
	}

	next, err := h.Notices.RetryRollover(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"next_notice": next})
}

func (h *NoticeController) AddNote(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "ID de aviso inválido")
	if !ok {
		return
	}
	var input AddNoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, services.ErrEmptyNote)
		return
	}
	actor := currentIdentity(c, h.Identities)
	if actor == nil {
		return
	}

	note, err := h.Notices.AddNote(c.Request.Context(), actor, id, input.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

func (h *NoticeController) SendReminder(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "ID de aviso inválido")
	if !ok {
		return
	}
	actor := currentIdentity(c, h.Identities)
	if actor == nil {
		return
	}

	result, err := h.Reminders.SendNoticeReminder(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *NoticeController) ReimburseUpcoming(c *gin.Context) {
	reset, err := h.Notices.ReimburseUpcoming(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset": reset})
}

func (h *NoticeController) PurgeStale(c *gin.Context) {
	purged, err := h.Notices.PurgeStale(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"purged": purged})
}
