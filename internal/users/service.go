package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mateoquiros/vendaria-backend/pkg/config"
	"github.com/mateoquiros/vendaria-backend/pkg/db/models"
	pkgerrors "github.com/mateoquiros/vendaria-backend/pkg/errors"
)

// Service exposes user lookups and the selling authorization check.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// CanSell reports whether the user may list or fulfill. It requires
	// both the platform-wide selling flag and the per-user grant.
	CanSell(ctx context.Context, id uuid.UUID) (bool, error)
	GrantSelling(ctx context.Context, id uuid.UUID) error
	RevokeSelling(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo  Repository
	flags config.FeatureFlagsConfig
}

// NewService wires a user service with the provided repository.
func NewService(repo Repository, flags config.FeatureFlagsConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo, flags: flags}, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *service) CanSell(ctx context.Context, id uuid.UUID) (bool, error) {
	if !s.flags.SellingEnabled {
		return false, nil
	}
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return user.IsActive && user.CanSell, nil
}

func (s *service) GrantSelling(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.UpdateCanSell(ctx, id, true)
}

func (s *service) RevokeSelling(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.UpdateCanSell(ctx, id, false)
}
