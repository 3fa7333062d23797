package domain

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "modsync.dev/pkg/modsync/internal/model"
)

func TestAddPackage(t *testing.T) {
	env := newTestEnv(t)

	source := filepath.Join(t.TempDir(), "Downloaded.zip")
	writeZip(t, source, map[string]string{
		"Downloaded/A/manifest.json": manifest("x.A"),
		"Downloaded/B/manifest.json": manifest("x.B"),
	})

	stamp := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(source, stamp, stamp))

	pkg, err := env.engine.AddPackage(context.Background(), m.Path(source))
	require.NoError(t, err)

	assert.Equal(t, "Downloaded", pkg.Name)
	assert.Equal(t, "Downloaded.zip", pkg.Filename)
	assert.Equal(t, 2, pkg.ModCount)
	assert.False(t, pkg.Enabled)

	info, err := os.Stat(filepath.Join(env.library, "Downloaded.zip"))
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(stamp))
	assert.FileExists(t, source)
}

func TestAddPackage_Rejects(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "mod.rar"), "rar")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.zip"), 0o750))

	_, err := env.engine.AddPackage(context.Background(), m.Path(filepath.Join(dir, "missing.zip")))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.engine.AddPackage(context.Background(), m.Path(filepath.Join(dir, "mod.rar")))
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = env.engine.AddPackage(context.Background(), m.Path(filepath.Join(dir, "folder.zip")))
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestAddPackage_AlreadyInLibrary(t *testing.T) {
	env := newTestEnv(t)
	path := env.addArchive(t, "Here.zip", map[string]string{"manifest.json": manifest("x")})

	pkg, err := env.engine.AddPackage(context.Background(), m.Path(path))
	require.NoError(t, err)
	assert.Equal(t, 1, pkg.ModCount)
	assert.FileExists(t, path)
}

func TestAddPackage_ReplacesOtherExtensionCase(t *testing.T) {
	env := newTestEnv(t)
	env.addArchive(t, "Foo.ZIP", map[string]string{"manifest.json": manifest("x.Old")})

	source := filepath.Join(t.TempDir(), "Foo.zip")
	writeZip(t, source, map[string]string{
		"Foo/A/manifest.json": manifest("x.A"),
		"Foo/B/manifest.json": manifest("x.B"),
	})

	ctx := context.Background()

	pkg, err := env.engine.AddPackage(ctx, m.Path(source))
	require.NoError(t, err)
	assert.Equal(t, "Foo.zip", pkg.Filename)

	packages, err := env.engine.ListLocalPackages(ctx)
	require.NoError(t, err)
	require.Len(t, packages, 1)
	assert.Equal(t, "Foo.zip", packages[0].Filename)
	assert.Equal(t, 2, packages[0].ModCount)
}

func TestDeletePackage(t *testing.T) {
	env := newTestEnv(t)
	env.addArchive(t, "Mod.zip", map[string]string{"manifest.json": manifest("x")})

	result, err := env.engine.DeletePackage(context.Background(), "Mod", m.MatchExact)
	require.NoError(t, err)

	assert.Equal(t, m.DeleteResult{Package: "Mod", Filename: "Mod.zip"}, result)
	assert.NoFileExists(t, filepath.Join(env.library, "Mod.zip"))
}

func TestDeletePackage_DeactivatesFirst(t *testing.T) {
	env := newTestEnv(t)
	env.addArchive(t, "Mod.zip", map[string]string{
		"Mod/A/manifest.json": manifest("x.A"),
		"Mod/B/manifest.json": manifest("x.B"),
	})

	ctx := context.Background()
	_, err := env.engine.Activate(ctx, "Mod.zip")
	require.NoError(t, err)

	result, err := env.engine.DeletePackage(ctx, "Mod.zip", m.MatchExact)
	require.NoError(t, err)

	assert.True(t, result.Deactivated)
	assert.Equal(t, 2, result.ModCount)
	assert.NoDirExists(t, filepath.Join(env.live, "Mod"))
	assert.NoFileExists(t, filepath.Join(env.library, "Mod.zip"))
}

func TestDeletePackage_FoldMatchesLiveDir(t *testing.T) {
	env := newTestEnv(t)
	env.addArchive(t, "CoolMod.zip", map[string]string{"manifest.json": manifest("x")})
	require.NoError(t, os.Mkdir(filepath.Join(env.live, "coolmod"), 0o750))

	result, err := env.engine.DeletePackage(context.Background(), "COOLMOD", m.MatchFold)
	require.NoError(t, err)

	assert.Equal(t, "CoolMod", result.Package)
	assert.True(t, result.Deactivated)
	assert.NoDirExists(t, filepath.Join(env.live, "coolmod"))
}

func TestDeletePackage_ExactLeavesOtherCaseLiveDir(t *testing.T) {
	env := newTestEnv(t)
	env.addArchive(t, "CoolMod.zip", map[string]string{"manifest.json": manifest("x")})
	require.NoError(t, os.Mkdir(filepath.Join(env.live, "coolmod"), 0o750))

	result, err := env.engine.DeletePackage(context.Background(), "CoolMod", m.MatchExact)
	require.NoError(t, err)

	assert.False(t, result.Deactivated)
	assert.DirExists(t, filepath.Join(env.live, "coolmod"))
}

func TestDeletePackage_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.DeletePackage(context.Background(), "Missing", m.MatchFold)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolvePackage(t *testing.T) {
	env := newTestEnv(t)
	env.addArchive(t, "CoolMod.zip", map[string]string{"manifest.json": manifest("x")})
	env.addArchive(t, "Other.ZIP", map[string]string{"manifest.json": manifest("y")})

	tests := []struct {
		name    string
		input   string
		match   m.MatchMode
		want    string
		wantErr error
	}{
		{"stem", "CoolMod", m.MatchExact, "CoolMod.zip", nil},
		{"filename", "CoolMod.zip", m.MatchExact, "CoolMod.zip", nil},
		{"upper extension", "Other", m.MatchExact, "Other.ZIP", nil},
		{"fold stem", "coolmod", m.MatchFold, "CoolMod.zip", nil},
		{"fold filename", "other.zip", m.MatchFold, "Other.ZIP", nil},
		{"exact miss", "coolmod", m.MatchExact, "", ErrNotFound},
		{"path rejected", "../CoolMod", m.MatchFold, "", ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.engine.ResolvePackage(tt.input, tt.match)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
