package social

import (
	"context"
	"errors"
	"strings"
	"time"

	"feels/backend/internal/models"
	"feels/backend/internal/store"

	"go.uber.org/zap"
)

// FeelingService manages the catalog of feelings and their types.
type FeelingService struct {
	store store.Feelings
	log   *zap.Logger
	now   func() time.Time
}

func (s *FeelingService) ListFeelings(ctx context.Context) ([]models.Feeling, error) {
	feelings, err := s.store.ListFeelings(ctx)
	if err != nil {
		return nil, storeErr(err, nil, "list feelings")
	}
	return feelings, nil
}

func (s *FeelingService) ListFeelingTypes(ctx context.Context) ([]models.FeelingType, error) {
	types, err := s.store.FeelingTypes(ctx)
	if err != nil {
		return nil, storeErr(err, nil, "list feeling types")
	}
	return types, nil
}

type NewFeeling struct {
	Name        string
	Color       string
	Description string
	TypeName    string
}

// CreateFeeling adds a feeling, linking it to TypeName when one is given.
func (s *FeelingService) CreateFeeling(ctx context.Context, in NewFeeling) (*models.Feeling, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.Color == "" {
		return nil, newError(KindInvalid, "Feeling name and color are required")
	}

	feeling := &models.Feeling{
		Name:        name,
		Color:       in.Color,
		Description: in.Description,
		CreatedAt:   s.now(),
	}
	if in.TypeName != "" {
		ft, err := s.store.FeelingTypeByName(ctx, in.TypeName)
		if err != nil {
			return nil, storeErr(err, ErrFeelingTypeGone, "load feeling type")
		}
		feeling.FeelingTypeName = &ft.Name
		feeling.FeelingType = ft
	}

	if err := s.store.CreateFeeling(ctx, feeling); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrFeelingExists
		}
		return nil, storeErr(err, nil, "create feeling")
	}
	return feeling, nil
}

var defaultFeelingTypes = []models.FeelingType{
	{Name: "high_energy_pleasant", Description: "High energy, pleasant emotions"},
	{Name: "low_energy_pleasant", Description: "Low energy, pleasant emotions"},
	{Name: "high_energy_unpleasant", Description: "High energy, unpleasant emotions"},
	{Name: "low_energy_unpleasant", Description: "Low energy, unpleasant emotions"},
}

var defaultFeelings = []struct{ name, color, typ string }{
	{"Excited", "#FF6B35", "high_energy_pleasant"},
	{"Joyful", "#FFD23F", "high_energy_pleasant"},
	{"Energetic", "#EE964B", "high_energy_pleasant"},
	{"Enthusiastic", "#F95738", "high_energy_pleasant"},

	{"Content", "#4ECDC4", "low_energy_pleasant"},
	{"Peaceful", "#45B7D1", "low_energy_pleasant"},
	{"Grateful", "#96CEB4", "low_energy_pleasant"},
	{"Relaxed", "#FECA57", "low_energy_pleasant"},

	{"Anxious", "#FF6B6B", "high_energy_unpleasant"},
	{"Frustrated", "#EE5A24", "high_energy_unpleasant"},
	{"Angry", "#C44569", "high_energy_unpleasant"},
	{"Stressed", "#F8B500", "high_energy_unpleasant"},

	{"Sad", "#778CA3", "low_energy_unpleasant"},
	{"Lonely", "#A55EEA", "low_energy_unpleasant"},
	{"Tired", "#95A5A6", "low_energy_unpleasant"},
	{"Disappointed", "#74B9FF", "low_energy_unpleasant"},
}

// SeedDefaults installs the default feeling catalog unless feelings already
// exist. It returns how many feelings were created.
func (s *FeelingService) SeedDefaults(ctx context.Context) (int, error) {
	existing, err := s.store.ListFeelings(ctx)
	if err != nil {
		return 0, storeErr(err, nil, "list feelings")
	}
	if len(existing) > 0 {
		return 0, nil
	}

	now := s.now()
	for _, ft := range defaultFeelingTypes {
		ft.CreatedAt = now
		err := s.store.CreateFeelingType(ctx, &ft)
		if err != nil && !errors.Is(err, store.ErrDuplicate) {
			return 0, storeErr(err, nil, "create feeling type")
		}
	}

	created := 0
	for _, f := range defaultFeelings {
		typ := f.typ
		feeling := &models.Feeling{
			Name:            f.name,
			Color:           f.color,
			Description:     "A feeling of being " + strings.ToLower(f.name),
			FeelingTypeName: &typ,
			CreatedAt:       now,
		}
		if err := s.store.CreateFeeling(ctx, feeling); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				continue
			}
			return created, storeErr(err, nil, "create feeling")
		}
		created++
	}
	s.log.Info("seeded feelings", zap.Int("count", created))
	return created, nil
}
