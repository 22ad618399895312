package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesAndIsIdempotent(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "backups")

	first, err := EnsureDir(dir)
	require.NoError(t, err)
	require.Equal(t, dir, first)

	second, err := EnsureDir(dir)
	require.NoError(t, err)
	require.Equal(t, first, second)

	fi, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestEnsureSubDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "snapshots"), []byte("x"), 0o660))

	_, err := EnsureSubDir(tmp, "snapshots")
	require.Error(t, err)
}

func TestCopyFile_CopiesContentAndReportsSize(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src.bin")
	dst := filepath.Join(tmp, "dst.bin")
	payload := []byte("photo bytes")
	require.NoError(t, os.WriteFile(src, payload, 0o660))

	n, err := CopyFile(src, dst)
	require.NoError(t, err)
	require.Equal(t, int64(len(payload)), n)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestCopyFile_MissingSource(t *testing.T) {
	tmp := t.TempDir()
	_, err := CopyFile(filepath.Join(tmp, "nope"), filepath.Join(tmp, "dst"))
	require.Error(t, err)
}

func TestAtomicMove_RenamesStagingFile(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "work.tmp")
	dst := filepath.Join(tmp, "backup_final.json")
	require.NoError(t, os.WriteFile(src, []byte("{}"), 0o660))

	require.NoError(t, AtomicMove(src, dst))
	require.False(t, Exists(src))
	require.True(t, Exists(dst))
}

func TestFileSize(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, "f")
	require.NoError(t, os.WriteFile(p, []byte("12345"), 0o660))

	n, err := FileSize(p)
	require.NoError(t, err)
	require.Equal(t, int64(5), n)
}
