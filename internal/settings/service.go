package settings

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/naritchaphan/talad-backend/internal/activity"
	"github.com/naritchaphan/talad-backend/pkg/enums"
	pkgerrors "github.com/naritchaphan/talad-backend/pkg/errors"
)

// Service exposes storefront settings reads and back-office mutations.
type Service interface {
	GetPublic(ctx context.Context) (*PublicSettingsDTO, error)
	Get(ctx context.Context) (*SettingsDTO, error)
	Update(ctx context.Context, actorID uuid.UUID, input UpdateSettingsInput) (*SettingsDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     *Repository
	tx       txRunner
	recorder *activity.Recorder
}

// NewService constructs the settings service.
func NewService(repo *Repository, tx txRunner, recorder *activity.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	return &service{repo: repo, tx: tx, recorder: recorder}, nil
}

func (s *service) GetPublic(ctx context.Context) (*PublicSettingsDTO, error) {
	row, err := s.repo.Get(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings")
	}
	return toPublicDTO(row), nil
}

func (s *service) Get(ctx context.Context) (*SettingsDTO, error) {
	row, err := s.repo.Get(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings")
	}
	return toDTO(row), nil
}

// Update mutates the singleton under its row lock so a concurrent checkout
// never reads a half-applied settings change.
func (s *service) Update(ctx context.Context, actorID uuid.UUID, input UpdateSettingsInput) (*SettingsDTO, error) {
	var updated *SettingsDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		row, err := txRepo.GetForUpdate(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock settings")
		}
		before := toDTO(row)
		wasOpen := row.IsOpen

		if input.StoreName != nil {
			row.StoreName = *input.StoreName
		}
		if input.Announcement != nil {
			row.Announcement = input.Announcement
		}
		if input.IsOpen != nil {
			row.IsOpen = *input.IsOpen
		}
		if input.PickupAddress != nil {
			row.PickupAddress = input.PickupAddress
		}
		if input.PromptPayID != nil {
			row.PromptPayID = input.PromptPayID
		}
		if input.DeliveryBaseFeeSatang != nil {
			if *input.DeliveryBaseFeeSatang < 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "delivery_base_fee_satang cannot be negative")
			}
			row.DeliveryBaseFeeSatang = *input.DeliveryBaseFeeSatang
		}
		if input.DeliveryPerKmFeeSatang != nil {
			if *input.DeliveryPerKmFeeSatang < 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "delivery_per_km_fee_satang cannot be negative")
			}
			row.DeliveryPerKmFeeSatang = *input.DeliveryPerKmFeeSatang
		}
		if input.FreeDeliveryMinimumSatang != nil {
			if *input.FreeDeliveryMinimumSatang < 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "free_delivery_minimum_satang cannot be negative")
			}
			row.FreeDeliveryMinimumSatang = input.FreeDeliveryMinimumSatang
		}
		if input.Categories != nil {
			row.Categories = append([]string{}, (*input.Categories)...)
		}

		if err := txRepo.Save(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save settings")
		}

		after := toDTO(row)
		action := enums.ActivitySettingsUpdated
		if input.IsOpen != nil && wasOpen != row.IsOpen {
			if row.IsOpen {
				action = enums.ActivityStoreOpened
			} else {
				action = enums.ActivityStoreClosed
			}
		}
		if err := s.recorder.Record(ctx, tx, activity.Entry{
			ActorUserID: &actorID,
			Action:      action,
			EntityType:  "store_settings",
			EntityID:    &row.ID,
			Before:      before,
			After:       after,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record settings change")
		}

		updated = after
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update settings")
	}
	return updated, nil
}
