package suppliers

import (
	"time"

	"github.com/google/uuid"

	"github.com/medimitra/medimitra-backend/pkg/db/models"
)

// SupplierDTO is the API shape of a supplier.
type SupplierDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ContactName *string   `json:"contactName,omitempty"`
	Email       *string   `json:"email,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Address     *string   `json:"address,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func FromModel(s *models.Supplier) *SupplierDTO {
	if s == nil {
		return nil
	}
	return &SupplierDTO{
		ID:          s.ID,
		Name:        s.Name,
		ContactName: s.ContactName,
		Email:       s.Email,
		Phone:       s.Phone,
		Address:     s.Address,
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

type CreateSupplierInput struct {
	Name        string
	ContactName *string
	Email       *string
	Phone       *string
	Address     *string
	IsActive    *bool
}

// UpdateSupplierInput carries optional changes; nil fields are left untouched.
type UpdateSupplierInput struct {
	Name        *string
	ContactName *string
	Email       *string
	Phone       *string
	Address     *string
	IsActive    *bool
}

type ListSuppliersInput struct {
	Search     string
	ActiveOnly bool
}
