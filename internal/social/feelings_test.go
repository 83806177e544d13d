package social

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	feelings, err := f.svc.Feelings.ListFeelings(ctx)
	require.NoError(t, err)
	assert.Len(t, feelings, 16)
	assert.Equal(t, "Excited", feelings[0].Name)
	require.NotNil(t, feelings[0].FeelingType)
	assert.Equal(t, "high_energy_pleasant", feelings[0].FeelingType.Name)
	assert.Equal(t, "A feeling of being excited", feelings[0].Description)

	types, err := f.svc.Feelings.ListFeelingTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, types, 4)

	n, err := f.svc.Feelings.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "seeding twice is a no-op")
}

func TestCreateFeeling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.svc.Feelings.CreateFeeling(ctx, NewFeeling{Name: "Hopeful", Color: "#00AA88", TypeName: "low_energy_pleasant"})
	require.NoError(t, err)
	require.NotNil(t, got.FeelingTypeName)
	assert.Equal(t, "low_energy_pleasant", *got.FeelingTypeName)

	_, err = f.svc.Feelings.CreateFeeling(ctx, NewFeeling{Name: "Hopeful", Color: "#00AA88"})
	assert.ErrorIs(t, err, ErrFeelingExists)
	_, err = f.svc.Feelings.CreateFeeling(ctx, NewFeeling{Name: "Curious", Color: "#123456", TypeName: "nope"})
	assert.ErrorIs(t, err, ErrFeelingTypeGone)
	_, err = f.svc.Feelings.CreateFeeling(ctx, NewFeeling{Name: "Blank"})
	assert.Equal(t, KindInvalid, KindOf(err))
}
