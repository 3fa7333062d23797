package domain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"modsync.dev/pkg/modsync/internal/adapter"
	m "modsync.dev/pkg/modsync/internal/model"
)

// failingMoveFS fails every Move after the first allowed ones.
type failingMoveFS struct {
	adapter.FSAdapter
	allowed int
	moves   int
}

func (f *failingMoveFS) Move(src, dst m.Path) error {
	f.moves++
	if f.moves > f.allowed {
		return errors.New("device full")
	}

	return f.FSAdapter.Move(src, dst)
}

func TestActivate_FlattensSingleRoot(t *testing.T) {
	tests := []struct {
		name    string
		entries map[string]string
	}{
		{
			name: "root at archive top",
			entries: map[string]string{
				"manifest.json":   manifest("x.Solo"),
				"Solo.dll":        "dll",
				"assets/tile.png": "png",
			},
		},
		{
			name: "root in wrapper folders",
			entries: map[string]string{
				"Solo-1.0/Solo/manifest.json":   manifest("x.Solo"),
				"Solo-1.0/Solo/Solo.dll":        "dll",
				"Solo-1.0/Solo/assets/tile.png": "png",
				"Solo-1.0/readme.txt":           "outside the root",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.addArchive(t, "Solo.zip", tt.entries)

			result, err := env.engine.Activate(context.Background(), "Solo.zip")
			require.NoError(t, err)

			assert.Equal(t, "Solo", result.Package)
			assert.Equal(t, m.LayoutFlattened, result.Layout)
			assert.Equal(t, []string{"x.Solo"}, result.Mods)
			assert.Equal(t, m.Path(filepath.Join(env.live, "Solo")), result.Dir)

			assert.Equal(t,
				[]string{"Solo.dll", "assets/tile.png", "manifest.json"},
				listTree(t, filepath.Join(env.live, "Solo")))

			assertNoScratchDirs(t, env)
		})
	}
}

func TestActivate_NestsSiblingRoots(t *testing.T) {
	env := newTestEnv(t)
	env.addArchive(t, "CoolMod.zip", map[string]string{
		"CoolMod/ModA/manifest.json": manifest("x.A"),
		"CoolMod/ModA/a.dll":         "a",
		"CoolMod/ModB/manifest.json": manifest("x.B"),
		"CoolMod/ModC/manifest.json": manifest("x.C"),
		"CoolMod/ModC/data/c.json":   "{}",
	})

	result, err := env.engine.Activate(context.Background(), "CoolMod.zip")
	require.NoError(t, err)

	assert.Equal(t, m.LayoutNested, result.Layout)
	assert.Equal(t, []string{"x.A", "x.B", "x.C"}, result.Mods)

	liveDir := filepath.Join(env.live, "CoolMod")
	assert.Equal(t, []string{
		"ModA/a.dll",
		"ModA/manifest.json",
		"ModB/manifest.json",
		"ModC/data/c.json",
		"ModC/manifest.json",
	}, listTree(t, liveDir))

	assert.Len(t, FindModRoots(env.engine.fs, m.Path(liveDir)), 3)
	assertNoScratchDirs(t, env)
}

func TestActivate_ReplacesPreviousActivation(t *testing.T) {
	env := newTestEnv(t)
	env.addArchive(t, "Mod.zip", map[string]string{
		"manifest.json": manifest("x.Mod"),
		"kept.txt":      "new",
	})

	liveDir := filepath.Join(env.live, "Mod")
	writeFile(t, filepath.Join(liveDir, "stale.txt"), "old")
	writeFile(t, filepath.Join(liveDir, "kept.txt"), "old")

	_, err := env.engine.Activate(context.Background(), "Mod.zip")
	require.NoError(t, err)

	assert.Equal(t, []string{"kept.txt", "manifest.json"}, listTree(t, liveDir))

	data, err := os.ReadFile(filepath.Join(liveDir, "kept.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestActivate_MissingUniqueIDFallsBackToName(t *testing.T) {
	env := newTestEnv(t)
	env.addArchive(t, "Bare.zip", map[string]string{
		"Outer/First/manifest.json":  `{"Name": "no id"}`,
		"Outer/Second/manifest.json": manifest("x.Second"),
	})

	result, err := env.engine.Activate(context.Background(), "Bare.zip")
	require.NoError(t, err)
	assert.Equal(t, []string{"First", "x.Second"}, result.Mods)
}

func TestActivate_ZeroRootsLeavesLiveDirUntouched(t *testing.T) {
	env := newTestEnv(t)
	env.addArchive(t, "Empty.zip", map[string]string{"a/b/c/d/manifest.json": manifest("too.deep")})

	liveDir := filepath.Join(env.live, "Empty")
	writeFile(t, filepath.Join(liveDir, "manifest.json"), manifest("previous"))

	_, err := env.engine.Activate(context.Background(), "Empty.zip")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidFormat)

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "activate", opErr.Op)
	assert.Equal(t, "Empty", opErr.Package)

	assert.Equal(t, []string{"manifest.json"}, listTree(t, liveDir))
	assertNoScratchDirs(t, env)
}

func TestActivate_LegacyManifestFields(t *testing.T) {
	env := newTestEnv(t)
	env.addArchive(t, "Legacy.zip", map[string]string{
		"Legacy/manifest.json": `{
			"Name": "Legacy",
			"Author": ["a", "b"],
			"Version": {"MajorVersion": 1, "MinorVersion": 0, "PatchVersion": 2},
			"UniqueID": "old.Legacy",
		}`,
		"Legacy/Legacy.dll": "dll",
	})

	result, err := env.engine.Activate(context.Background(), "Legacy.zip")
	require.NoError(t, err)

	assert.Equal(t, []string{"old.Legacy"}, result.Mods)
	assert.Equal(t, []string{"Legacy.dll", "manifest.json"}, listTree(t, filepath.Join(env.live, "Legacy")))
}

func TestActivate_MalformedManifest(t *testing.T) {
	env := newTestEnv(t)
	env.addArchive(t, "Bad.zip", map[string]string{"manifest.json": `{"UniqueID": `})

	_, err := env.engine.Activate(context.Background(), "Bad.zip")
	require.ErrorIs(t, err, ErrInvalidFormat)
	assert.Equal(t, 1, strings.Count(err.Error(), ErrInvalidFormat.Error()), err.Error())
	assert.NoDirExists(t, filepath.Join(env.live, "Bad"))
	assertNoScratchDirs(t, env)
}

func TestActivate_RejectsEscapingEntries(t *testing.T) {
	env := newTestEnv(t)
	env.addArchive(t, "Slip.zip", map[string]string{
		"manifest.json":     manifest("x.Slip"),
		"../../escaped.txt": "nope",
	})

	_, err := env.engine.Activate(context.Background(), "Slip.zip")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	assert.NoFileExists(t, filepath.Join(filepath.Dir(env.library), "escaped.txt"))
	assert.NoDirExists(t, filepath.Join(env.live, "Slip"))
	assertNoScratchDirs(t, env)
}

func TestActivate_CorruptArchive(t *testing.T) {
	env := newTestEnv(t)
	writeFile(t, filepath.Join(env.library, "Corrupt.zip"), "garbage")

	_, err := env.engine.Activate(context.Background(), "Corrupt.zip")
	assert.ErrorIs(t, err, ErrIO)
	assertNoScratchDirs(t, env)
}

func TestActivate_NotFound(t *testing.T) {
	env := newTestEnv(t)

	for _, filename := range []string{"Missing.zip", "../escape.zip", ""} {
		_, err := env.engine.Activate(context.Background(), filename)
		assert.ErrorIs(t, err, ErrNotFound, filename)
	}

	entries, err := os.ReadDir(env.live)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestActivate_Cancelled(t *testing.T) {
	env := newTestEnv(t)
	env.addArchive(t, "Mod.zip", map[string]string{"manifest.json": manifest("x")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.engine.Activate(ctx, "Mod.zip")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoDirExists(t, filepath.Join(env.live, "Mod"))
}

func TestActivate_ConcurrentCallsSerialize(t *testing.T) {
	env := newTestEnv(t)
	env.addArchive(t, "Mod.zip", map[string]string{
		"Mod/One/manifest.json": manifest("x.One"),
		"Mod/Two/manifest.json": manifest("x.Two"),
	})

	errs := make(chan error, 4)
	for range 4 {
		go func() {
			_, err := env.engine.Activate(context.Background(), "Mod.zip")
			errs <- err
		}()
	}

	for range 4 {
		require.NoError(t, <-errs)
	}

	assert.Equal(t, []string{"One/manifest.json", "Two/manifest.json"}, listTree(t, filepath.Join(env.live, "Mod")))
	assertNoScratchDirs(t, env)
}

func TestActivate_MoveFailureDiscardsPartialPackage(t *testing.T) {
	moveFS := &failingMoveFS{allowed: 1}
	env := newTestEnvWithAdapters(t, func(fs adapter.FSAdapter) adapter.FSAdapter {
		moveFS.FSAdapter = fs
		return moveFS
	}, nil)
	env.addArchive(t, "Pair.zip", map[string]string{
		"Pair/First/manifest.json":  manifest("x.First"),
		"Pair/Second/manifest.json": manifest("x.Second"),
	})

	_, err := env.engine.Activate(context.Background(), "Pair.zip")
	require.ErrorIs(t, err, ErrIO)
	assert.Contains(t, err.Error(), "device full")

	assert.Equal(t, 2, moveFS.moves)
	assert.NoDirExists(t, filepath.Join(env.live, "Pair"))
	assertNoScratchDirs(t, env)
}
