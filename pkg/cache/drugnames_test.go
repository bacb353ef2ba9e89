package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDrugSource struct {
	names map[uuid.UUID]string
	err   error
	calls int
}

func (f *fakeDrugSource) GetNamesByIDs(_ context.Context, drugIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[uuid.UUID]string)
	for _, id := range drugIDs {
		if name, ok := f.names[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestDrugNames_NilClientReadsSource(t *testing.T) {
	id := uuid.New()
	source := &fakeDrugSource{names: map[uuid.UUID]string{id: "Lisinopril"}}
	cache := NewDrugNames(nil, source, 0, noopLogger())

	names, err := cache.ResolveNames(context.Background(), []uuid.UUID{id})
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]string{id: "Lisinopril"}, names)
	assert.Equal(t, 1, source.calls)
}

func TestDrugNames_UnknownIDsAbsent(t *testing.T) {
	source := &fakeDrugSource{names: map[uuid.UUID]string{}}
	cache := NewDrugNames(nil, source, 0, noopLogger())

	names, err := cache.ResolveNames(context.Background(), []uuid.UUID{uuid.New()})
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestDrugNames_SourceErrorPropagates(t *testing.T) {
	source := &fakeDrugSource{err: errors.New("db down")}
	cache := NewDrugNames(nil, source, 0, noopLogger())

	_, err := cache.ResolveNames(context.Background(), []uuid.UUID{uuid.New()})
	assert.Error(t, err)
}

func TestDrugNames_NilClientInvalidateIsNoop(t *testing.T) {
	cache := NewDrugNames(nil, &fakeDrugSource{}, 0, noopLogger())
	assert.NoError(t, cache.Invalidate(context.Background(), uuid.New()))
}
