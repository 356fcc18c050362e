package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Branch is the line of insurance a policy belongs to.
type Branch string

const (
	BranchAutomotores          Branch = "Automotores"
	BranchMotovehiculos        Branch = "Motovehiculos"
	BranchResponsabilidadCivil Branch = "Responsabilidad civil"
	BranchAccidentePersonal    Branch = "Accidente Personal"
	BranchBicicletas           Branch = "Bicicletas"
	BranchIntegralDeComercio   Branch = "Integral de Comercio"
	BranchCombinadoFamiliar    Branch = "Combinado Familiar"
)

var Branches = []Branch{
	BranchAutomotores,
	BranchMotovehiculos,
	BranchResponsabilidadCivil,
	BranchAccidentePersonal,
	BranchBicicletas,
	BranchIntegralDeComercio,
	BranchCombinadoFamiliar,
}

func (b Branch) Valid() bool {
	for _, known := range Branches {
		if b == known {
			return true
		}
	}
	return false
}

type Policy struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID         uuid.UUID `gorm:"type:uuid;index;not null" json:"client_id"`
	CompanyID        uuid.UUID `gorm:"type:uuid;index;not null" json:"company_id"`
	Branch           Branch    `gorm:"type:varchar(40);not null" json:"branch"`
	VehiclePlate     string    `gorm:"type:varchar(20)" json:"vehicle_plate,omitempty"`
	FirstPaymentDate Date      `gorm:"type:date;not null" json:"first_payment_date"`

	Client  *Client        `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Company *Company       `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Notices []PolicyNotice `gorm:"foreignKey:PolicyID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Policy) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
