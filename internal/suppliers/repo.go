package suppliers

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medimitra/medimitra-backend/internal/repo"
	"github.com/medimitra/medimitra-backend/pkg/db/models"
)

// Repository persists suppliers.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, supplier *models.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

// FindByID returns nil, nil when no supplier matches.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	return repo.FindOne[models.Supplier](r.db.WithContext(ctx), "id = ?", id)
}

type listParams struct {
	Search     string
	ActiveOnly bool
}

func (r *Repository) List(ctx context.Context, params listParams) ([]models.Supplier, error) {
	query := r.db.WithContext(ctx).Model(&models.Supplier{})
	if params.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if term := strings.TrimSpace(params.Search); term != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(term)+"%")
	}
	var rows []models.Supplier
	err := query.Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Supplier{}).
		Where("id = ?", id).
		Updates(updates).Error
}
