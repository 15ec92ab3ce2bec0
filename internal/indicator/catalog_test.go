package indicator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore is an in-memory CatalogStore that counts calls.
type mockStore struct {
	defs map[string]Definition

	getByTypesCalls   int
	getAllActiveCalls int
	failReads         bool
}

func newMockStore(defs ...Definition) *mockStore {
	m := &mockStore{defs: make(map[string]Definition)}
	for _, def := range defs {
		m.defs[def.Type] = def
	}
	return m
}

func (m *mockStore) GetAllActive(ctx context.Context) ([]Definition, error) {
	m.getAllActiveCalls++
	if m.failReads {
		return nil, errors.New("store unavailable")
	}
	out := make([]Definition, 0, len(m.defs))
	for _, def := range m.defs {
		if def.Active {
			out = append(out, def)
		}
	}
	return out, nil
}

func (m *mockStore) GetByTypes(ctx context.Context, typeKeys []string) ([]Definition, error) {
	m.getByTypesCalls++
	if m.failReads {
		return nil, errors.New("store unavailable")
	}
	var out []Definition
	for _, key := range typeKeys {
		if def, ok := m.defs[key]; ok {
			out = append(out, def)
		}
	}
	return out, nil
}

func (m *mockStore) GetByType(ctx context.Context, typeKey string) (*Definition, error) {
	if m.failReads {
		return nil, errors.New("store unavailable")
	}
	if def, ok := m.defs[typeKey]; ok {
		return &def, nil
	}
	return nil, errors.New("not found")
}

func (m *mockStore) Upsert(ctx context.Context, def Definition) error {
	m.defs[def.Type] = def
	return nil
}

func (m *mockStore) Delete(ctx context.Context, typeKey string) error {
	delete(m.defs, typeKey)
	return nil
}

func catalogDef(typeKey string) Definition {
	return Definition{
		Type:          typeKey,
		DisplayName:   typeKey,
		PromptSnippet: "snippet for " + typeKey,
		Active:        true,
	}
}

func TestCatalogGetByTypesCachesHits(t *testing.T) {
	store := newMockStore(catalogDef("rsi"), catalogDef("ema"))
	catalog := NewCatalog(store, 16, time.Minute, zerolog.Nop())

	defs, err := catalog.GetByTypes(context.Background(), []string{"rsi", "ema"})
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, 1, store.getByTypesCalls)

	// Second read is fully served from cache.
	defs, err = catalog.GetByTypes(context.Background(), []string{"rsi", "ema"})
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, 1, store.getByTypesCalls)
}

func TestCatalogGetByTypesPreservesOrderAndDedupes(t *testing.T) {
	store := newMockStore(catalogDef("rsi"), catalogDef("ema"), catalogDef("macd"))
	catalog := NewCatalog(store, 16, time.Minute, zerolog.Nop())

	defs, err := catalog.GetByTypes(context.Background(), []string{"macd", "rsi", "macd", "ema"})
	require.NoError(t, err)
	require.Len(t, defs, 3)
	assert.Equal(t, "macd", defs[0].Type)
	assert.Equal(t, "rsi", defs[1].Type)
	assert.Equal(t, "ema", defs[2].Type)
}

func TestCatalogGetByTypesMissingKeysAbsent(t *testing.T) {
	store := newMockStore(catalogDef("rsi"))
	catalog := NewCatalog(store, 16, time.Minute, zerolog.Nop())

	defs, err := catalog.GetByTypes(context.Background(), []string{"rsi", "supertrend"})
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "rsi", defs[0].Type)
}

func TestCatalogUpsertInvalidatesCache(t *testing.T) {
	store := newMockStore(catalogDef("rsi"))
	catalog := NewCatalog(store, 16, time.Minute, zerolog.Nop())

	_, err := catalog.GetByTypes(context.Background(), []string{"rsi"})
	require.NoError(t, err)
	assert.Equal(t, 1, store.getByTypesCalls)

	updated := catalogDef("rsi")
	updated.PromptSnippet = "updated snippet"
	require.NoError(t, catalog.Upsert(context.Background(), updated))

	defs, err := catalog.GetByTypes(context.Background(), []string{"rsi"})
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "updated snippet", defs[0].PromptSnippet)
	assert.Equal(t, 2, store.getByTypesCalls)
}

func TestCatalogUpsertRequiresType(t *testing.T) {
	catalog := NewCatalog(newMockStore(), 16, time.Minute, zerolog.Nop())
	assert.Error(t, catalog.Upsert(context.Background(), Definition{DisplayName: "no type"}))
}

func TestCatalogDeleteInvalidatesCache(t *testing.T) {
	store := newMockStore(catalogDef("rsi"))
	catalog := NewCatalog(store, 16, time.Minute, zerolog.Nop())

	_, err := catalog.GetByTypes(context.Background(), []string{"rsi"})
	require.NoError(t, err)

	require.NoError(t, catalog.Delete(context.Background(), "rsi"))

	defs, err := catalog.GetByTypes(context.Background(), []string{"rsi"})
	require.NoError(t, err)
	assert.Empty(t, defs)
}

func TestCatalogActiveTypesMergesBuiltins(t *testing.T) {
	store := newMockStore(catalogDef("vortex"))
	catalog := NewCatalog(store, 16, time.Minute, zerolog.Nop())

	types := catalog.ActiveTypes(context.Background())
	assert.Contains(t, types, "vortex")
	for _, builtin := range BuiltinTypes() {
		assert.Contains(t, types, builtin)
	}
}

func TestCatalogActiveTypesCachedWithinTTL(t *testing.T) {
	store := newMockStore(catalogDef("rsi"))
	catalog := NewCatalog(store, 16, time.Minute, zerolog.Nop())

	catalog.ActiveTypes(context.Background())
	catalog.ActiveTypes(context.Background())
	assert.Equal(t, 1, store.getAllActiveCalls)
}

func TestCatalogActiveTypesDegradesToBuiltins(t *testing.T) {
	store := newMockStore()
	store.failReads = true
	catalog := NewCatalog(store, 16, time.Minute, zerolog.Nop())

	types := catalog.ActiveTypes(context.Background())
	assert.Equal(t, BuiltinTypes(), types)
}

func TestCatalogTTLExpiry(t *testing.T) {
	store := newMockStore(catalogDef("rsi"))
	catalog := NewCatalog(store, 16, 20*time.Millisecond, zerolog.Nop())

	_, err := catalog.GetByTypes(context.Background(), []string{"rsi"})
	require.NoError(t, err)
	assert.Equal(t, 1, store.getByTypesCalls)

	time.Sleep(60 * time.Millisecond)

	_, err = catalog.GetByTypes(context.Background(), []string{"rsi"})
	require.NoError(t, err)
	assert.Equal(t, 2, store.getByTypesCalls)
}
