package record

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func TestFileRepository_MissingDirListsEmpty(t *testing.T) {
	repo := NewFileRepository(filepath.Join(t.TempDir(), "nope"))

	docs, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestFileRepository_PutGetDelete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "notes")
	repo := NewFileRepository(dir)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "a1", []byte(`{"id":"a1"}`)))

	_, err := os.Stat(filepath.Join(dir, "a1.json"))
	require.NoError(t, err, "record file should exist")
	_, err = os.Stat(filepath.Join(dir, "a1.json.tmp"))
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

	body, err := repo.Get(ctx, "a1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a1"}`, string(body))

	require.NoError(t, repo.Delete(ctx, "a1"))
	_, err = repo.Get(ctx, "a1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "a1"), ErrNotFound)
}

func TestFileRepository_ListFiltersNames(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		t.Helper()
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("b.json", `{"id":"b"}`)
	write("a.json", `{"id":"a"}`)
	write(".hidden.json", `{"id":"hidden"}`)
	write(".gitkeep", "")
	write("clip.mp4", "binary")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))

	docs, err := NewFileRepository(dir).List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "b", docs[1].ID)
}

func TestFileRepository_RejectsUnsafeIDs(t *testing.T) {
	repo := NewFileRepository(t.TempDir())
	ctx := context.Background()
	for _, id := range []string{"", "  ", ".", "..", "../escape", `a\b`, "a/b", ".hidden"} {
		assert.ErrorIs(t, repo.Put(ctx, id, []byte(`{}`)), ErrInvalidID, "id %q", id)
		_, err := repo.Get(ctx, id)
		assert.ErrorIs(t, err, ErrInvalidID, "id %q", id)
		assert.ErrorIs(t, repo.Delete(ctx, id), ErrInvalidID, "id %q", id)
	}
}

func TestStore_ListAbortsOnCorruptRecord(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.json"), []byte(`{"id":"good"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{not json`), 0o644))

	_, err := NewStore[note](NewFileRepository(dir)).List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}

func TestStore_RoundTripIndented(t *testing.T) {
	dir := t.TempDir()
	store := NewStore[note](NewFileRepository(dir))
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "n1", note{ID: "n1", Text: "hello"}))

	raw, err := os.ReadFile(filepath.Join(dir, "n1.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  \"text\": \"hello\"")

	got, err := store.Get(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, note{ID: "n1", Text: "hello"}, got)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []note{{ID: "n1", Text: "hello"}}, all)
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileRepository(dir)
	ctx := context.Background()
	require.NoError(t, repo.Put(ctx, "x", []byte(`{}`)))
	require.NoError(t, repo.Put(ctx, "y", []byte(`{}`)))

	require.NoError(t, Clear(ctx, repo))

	docs, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}
