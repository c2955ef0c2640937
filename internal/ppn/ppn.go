package ppn

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adiwicaksana/tanisubur-backend/pkg/db/models"
	pkgerrors "github.com/adiwicaksana/tanisubur-backend/pkg/errors"
)

// Repository reads and appends tax-rate configuration rows.
type Repository interface {
	Latest(ctx context.Context) (*models.PPNConfig, error)
	Append(ctx context.Context, cfg *models.PPNConfig) error
	History(ctx context.Context, limit int) ([]models.PPNConfig, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a ppn repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Latest(ctx context.Context) (*models.PPNConfig, error) {
	var cfg models.PPNConfig
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *repository) Append(ctx context.Context, cfg *models.PPNConfig) error {
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(cfg).Error
}

func (r *repository) History(ctx context.Context, limit int) ([]models.PPNConfig, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []models.PPNConfig
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Service exposes the current PPN rate and its append-only history. Rates are
// frozen onto transactions at checkout, so changing the rate never rewrites
// existing rows.
type Service interface {
	CurrentPercentage(ctx context.Context) (float64, error)
	Current(ctx context.Context) (*models.PPNConfig, error)
	SetPercentage(ctx context.Context, percentage float64) (*models.PPNConfig, error)
	History(ctx context.Context, limit int) ([]models.PPNConfig, error)
}

type service struct {
	repo Repository
}

// NewService builds the PPN configuration service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ppn repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CurrentPercentage(ctx context.Context) (float64, error) {
	cfg, err := s.Current(ctx)
	if err != nil {
		return 0, err
	}
	return cfg.Percentage, nil
}

func (s *service) Current(ctx context.Context) (*models.PPNConfig, error) {
	cfg, err := s.repo.Latest(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// A missing rate is an operator mistake, not a client one.
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "ppn configuration missing")
		}
		return nil, err
	}
	return cfg, nil
}

func (s *service) SetPercentage(ctx context.Context, percentage float64) (*models.PPNConfig, error) {
	if percentage < 0 || percentage > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage must be between 0 and 100")
	}
	cfg := &models.PPNConfig{Percentage: percentage}
	if err := s.repo.Append(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *service) History(ctx context.Context, limit int) ([]models.PPNConfig, error) {
	return s.repo.History(ctx, limit)
}
