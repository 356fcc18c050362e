package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"polizas-backend/models"
	"polizas-backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ClientInput struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Locality string `json:"locality"`
}

type PolicyInput struct {
	ID               *uuid.UUID    `json:"id"`
	Branch           models.Branch `json:"branch"`
	VehiclePlate     string        `json:"vehicle_plate"`
	FirstPaymentDate models.Date   `json:"first_payment_date"`
	CompanyID        uuid.UUID     `json:"company_id"`
}

// ValidateClient checks the client form and its policies. Keys follow the
// form fields: full_name, email, policy_<i>_branch, policy_<i>_company,
// policy_<i>_date.
func ValidateClient(in ClientInput, policies []PolicyInput) map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(in.FullName) == "" {
		errs["full_name"] = "El nombre completo es requerido"
	}
	if email := strings.TrimSpace(in.Email); email != "" && !utils.ValidateEmail(email) {
		errs["email"] = "El email no tiene un formato válido"
	}
	if phone := strings.TrimSpace(in.Phone); phone != "" && !utils.ValidatePhone(phone) {
		errs["phone"] = "El teléfono no tiene un formato válido"
	}
	for i, p := range policies {
		switch {
		case p.Branch == "":
			errs[fmt.Sprintf("policy_%d_branch", i)] = "La rama es requerida"
		case !p.Branch.Valid():
			errs[fmt.Sprintf("policy_%d_branch", i)] = "La rama no es válida"
		}
		if p.CompanyID == uuid.Nil {
			errs[fmt.Sprintf("policy_%d_company", i)] = "La compañía es requerida"
		}
		if p.FirstPaymentDate.IsZero() {
			errs[fmt.Sprintf("policy_%d_date", i)] = "La fecha del primer cobro es requerida"
		}
	}
	return errs
}

// ClientService manages clients together with their policies. A new policy
// gets its first notice, due on the first payment date.
type ClientService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewClientService(db *gorm.DB, logger *zap.Logger) *ClientService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientService{db: db, logger: logger}
}

func (s *ClientService) ListClients(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	if err := s.db.WithContext(ctx).
		Preload("Policies.Company").
		Order("full_name").
		Find(&clients).Error; err != nil {
		s.logger.Error("error fetching clients", zap.Error(err))
		return nil, storeError("Error al obtener los clientes", err)
	}
	return clients, nil
}

func (s *ClientService) GetClient(ctx context.Context, id uuid.UUID) (models.Client, error) {
	var client models.Client
	if err := s.db.WithContext(ctx).
		Preload("Policies.Company").
		First(&client, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Client{}, ErrNotFound
		}
		return models.Client{}, storeError("Error al obtener los datos del cliente", err)
	}
	return client, nil
}

func (s *ClientService) CreateClient(ctx context.Context, in ClientInput, policies []PolicyInput) (models.Client, error) {
	if errs := ValidateClient(in, policies); len(errs) > 0 {
		return models.Client{}, &ValidationError{Fields: errs}
	}

	client := models.Client{
		FullName: strings.TrimSpace(in.FullName),
		Phone:    strings.TrimSpace(in.Phone),
		Email:    strings.TrimSpace(in.Email),
		Locality: strings.TrimSpace(in.Locality),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Policies").Create(&client).Error; err != nil {
			return storeError("Error al crear el cliente", err)
		}
		for _, p := range policies {
			if err := createPolicy(tx, client.ID, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("error creating client", zap.Error(err))
		return models.Client{}, err
	}

	s.logger.Info("client created", zap.String("client_id", client.ID.String()), zap.Int("policies", len(policies)))
	return s.GetClient(ctx, client.ID)
}

// UpdateClient replaces the client's data and reconciles its policies:
// inputs with an id are updated, inputs without one are created and
// existing policies missing from the list are deleted with their notices.
func (s *ClientService) UpdateClient(ctx context.Context, id uuid.UUID, in ClientInput, policies []PolicyInput) (models.Client, error) {
	if errs := ValidateClient(in, policies); len(errs) > 0 {
		return models.Client{}, &ValidationError{Fields: errs}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Client{}).Where("id = ?", id).Updates(map[string]interface{}{
			"full_name": strings.TrimSpace(in.FullName),
			"phone":     strings.TrimSpace(in.Phone),
			"email":     strings.TrimSpace(in.Email),
			"locality":  strings.TrimSpace(in.Locality),
		})
		if result.Error != nil {
			return storeError("Error al actualizar el cliente", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		var existingIDs []uuid.UUID
		if err := tx.Model(&models.Policy{}).Where("client_id = ?", id).Pluck("id", &existingIDs).Error; err != nil {
			return storeError("Error al obtener las pólizas", err)
		}

		keep := map[uuid.UUID]bool{}
		for _, p := range policies {
			if p.ID != nil {
				keep[*p.ID] = true
			}
		}
		var stale []uuid.UUID
		for _, existing := range existingIDs {
			if !keep[existing] {
				stale = append(stale, existing)
			}
		}
		if len(stale) > 0 {
			if err := tx.Where("id IN ?", stale).Delete(&models.Policy{}).Error; err != nil {
				return storeError("Error al eliminar pólizas", err)
			}
		}

		for i, p := range policies {
			if p.ID == nil {
				if err := createPolicy(tx, id, p); err != nil {
					return err
				}
				continue
			}
			updated := tx.Model(&models.Policy{}).
				Where("id = ? AND client_id = ?", *p.ID, id).
				Updates(map[string]interface{}{
					"branch":             p.Branch,
					"vehicle_plate":      strings.TrimSpace(p.VehiclePlate),
					"first_payment_date": p.FirstPaymentDate,
					"company_id":         p.CompanyID,
				})
			if updated.Error != nil {
				return storeError("Error al actualizar la póliza", updated.Error)
			}
			if updated.RowsAffected == 0 {
				return &ValidationError{Fields: map[string]string{
					fmt.Sprintf("policy_%d_id", i): "La póliza no pertenece al cliente",
				}}
			}
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrInvalidInput) {
			s.logger.Error("error updating client", zap.String("client_id", id.String()), zap.Error(err))
		}
		return models.Client{}, err
	}

	return s.GetClient(ctx, id)
}

func createPolicy(tx *gorm.DB, clientID uuid.UUID, in PolicyInput) error {
	policy := models.Policy{
		ClientID:         clientID,
		CompanyID:        in.CompanyID,
		Branch:           in.Branch,
		VehiclePlate:     strings.TrimSpace(in.VehiclePlate),
		FirstPaymentDate: in.FirstPaymentDate,
	}
	if err := tx.Omit("Client", "Company", "Notices").Create(&policy).Error; err != nil {
		return storeError("Error al crear la póliza", err)
	}
	first := models.PolicyNotice{
		PolicyID: policy.ID,
		DueDate:  policy.FirstPaymentDate,
		Status:   models.StatusAvisar,
	}
	if err := tx.Omit("Policy", "Notes").Create(&first).Error; err != nil {
		return storeError("Error al crear el aviso inicial", err)
	}
	return nil
}
