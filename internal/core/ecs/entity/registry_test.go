package entity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateAllocatesSequentialIDs(t *testing.T) {
	r := New()
	require.EqualValues(t, 0, r.Create("alpha", false))
	require.EqualValues(t, 1, r.Create("beta", false))
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	r := New()
	r.Create("alpha", false)
	require.EqualValues(t, -1, r.Create("alpha", false))
}

func TestRemoveRecyclesID(t *testing.T) {
	r := New()
	a := r.Create("alpha", false)
	r.Create("beta", false)
	r.Remove("alpha")

	gamma := r.Create("gamma", false)
	require.Equal(t, a, gamma, "freed id is recycled before count advances")
}

func TestIDOfAndNameOfNeverFail(t *testing.T) {
	r := New()
	id := r.Create("alpha", false)

	require.Equal(t, id, r.IDOf("alpha"))
	require.EqualValues(t, -1, r.IDOf("nope"))
	require.Equal(t, "alpha", r.NameOf(id))
	require.Equal(t, "", r.NameOf(999))
}

func TestNameOfStaleSlotAfterRemove(t *testing.T) {
	r := New()
	id := r.Create("alpha", false)
	r.Remove("alpha")
	require.Equal(t, "", r.NameOf(id))
}

func TestNamesPreservesInsertionOrder(t *testing.T) {
	r := New()
	r.Create("zeta", false)
	r.Create("alpha", false)
	require.Equal(t, []string{"zeta", "alpha"}, r.Names())
}

func TestEntitiesEmptyPrefixIsBroadcast(t *testing.T) {
	r := New()
	a := r.Create("alpha", false)
	b := r.Create("beta", false)
	require.ElementsMatch(t, []int64{a, b}, r.Entities("", true))
}

func TestEntitiesEmptyTagIsEmpty(t *testing.T) {
	r := New()
	r.Create("alpha", false)
	require.Empty(t, r.Entities("", false))
}

func TestEntitiesPrefixMatch(t *testing.T) {
	r := New()
	goblin1 := r.Create("goblin_1", false)
	goblin2 := r.Create("goblin_2", false)
	r.Create("hero", false)

	require.ElementsMatch(t, []int64{goblin1, goblin2}, r.Entities("goblin_", true))
}

func TestEntitiesUnknownTagIsEmpty(t *testing.T) {
	r := New()
	r.Create("alpha", false)
	require.Empty(t, r.Entities("undead", false))
}

func TestEntitiesTagLookup(t *testing.T) {
	r := New()
	a := r.Create("alpha", false)
	r.Create("beta", false)
	r.AddTag(a, "flying")

	require.Equal(t, []int64{a}, r.Entities("flying", false))
	require.True(t, r.HasTag(a, "flying"))
}

func TestAddTagIsIdempotent(t *testing.T) {
	r := New()
	a := r.Create("alpha", false)
	r.AddTag(a, "flying")
	r.AddTag(a, "flying")
	require.Len(t, r.Entities("flying", false), 1)
}

func TestRemoveClearsTags(t *testing.T) {
	r := New()
	a := r.Create("alpha", false)
	r.AddTag(a, "flying")
	r.Remove("alpha")
	require.Empty(t, r.Entities("flying", false))
}

func TestBootstrapDeterministicAcrossFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.json"),
		[]byte(`{"name": "alpha", "tags": ["hero"]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.json"),
		[]byte(`{"names": ["beta", "gamma"]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "c.json"),
		[]byte(`{"name": "goblin", "generate": 3}`), 0o644))

	r := New()
	require.NoError(t, r.Bootstrap(root))

	require.EqualValues(t, 0, r.IDOf("alpha"))
	require.True(t, r.HasTag(r.IDOf("alpha"), "hero"))
	require.NotEqual(t, int64(-1), r.IDOf("beta"))
	require.NotEqual(t, int64(-1), r.IDOf("gamma"))
	require.NotEqual(t, int64(-1), r.IDOf("goblin0"))
	require.NotEqual(t, int64(-1), r.IDOf("goblin1"))
	require.NotEqual(t, int64(-1), r.IDOf("goblin2"))
	require.EqualValues(t, -1, r.IDOf("goblin"))
}

func TestBootstrapMissingRootIsNotAnError(t *testing.T) {
	r := New()
	require.NoError(t, r.Bootstrap(filepath.Join(t.TempDir(), "missing")))
	require.Empty(t, r.Names())
}

func TestBootstrapSkipsFilesWithoutNameOrNames(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.json"), []byte(`{"tags": ["x"]}`), 0o644))

	r := New()
	require.NoError(t, r.Bootstrap(root))
	require.Empty(t, r.Names())
}
