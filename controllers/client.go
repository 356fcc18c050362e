package controllers

import (
	"net/http"

	"polizas-backend/services"

	"github.com/gin-gonic/gin"
)

type ClientController struct {
	Clients *services.ClientService
}

// ClientRequest is the client form: the client fields plus its policies.
type ClientRequest struct {
	services.ClientInput
	Policies []services.PolicyInput `json:"policies"`
}

// ListClients retrieves all clients with their policies
func (h *ClientController) ListClients(c *gin.Context) {
	clients, err := h.Clients.ListClients(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, clients)
}

func (h *ClientController) GetClient(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "ID de cliente inválido")
	if !ok {
		return
	}
	client, err := h.Clients.GetClient(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

// CreateClient creates a client and a first notice for each policy
func (h *ClientController) CreateClient(c *gin.Context) {
	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, services.ErrInvalidInput)
		return
	}
	client, err := h.Clients.CreateClient(c.Request.Context(), req.ClientInput, req.Policies)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

// UpdateClient replaces the client data and reconciles its policies
func (h *ClientController) UpdateClient(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "ID de cliente inválido")
	if !ok {
		return
	}
	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, services.ErrInvalidInput)
		return
	}
	client, err := h.Clients.UpdateClient(c.Request.Context(), id, req.ClientInput, req.Policies)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}
