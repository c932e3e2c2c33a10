package batch

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/slipscan/internal/testutil"
	"github.com/MeKo-Tech/slipscan/internal/utils"
)

func setupTree(t *testing.T) string {
	t.Helper()
	dir := testutil.CreateTempDir(t)
	testutil.WriteFile(t, dir, "b_slip.png", []byte("x"))
	testutil.WriteFile(t, dir, "a_slip.JPG", []byte("x"))
	testutil.WriteFile(t, dir, "notes.txt", []byte("x"))
	testutil.WriteFile(t, dir, "readme.md", []byte("x"))
	testutil.WriteFile(t, dir, filepath.Join("nested", "c_slip.tiff"), []byte("x"))
	testutil.WriteFile(t, dir, filepath.Join("nested", "more.txt"), []byte("x"))
	return dir
}

func baseNames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}

func TestDiscoverFiles_Directory(t *testing.T) {
	dir := setupTree(t)

	files, err := discoverFiles([]string{dir}, false, utils.IsSupportedImage, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a_slip.JPG", "b_slip.png"}, baseNames(files))
}

func TestDiscoverFiles_Recursive(t *testing.T) {
	dir := setupTree(t)

	files, err := discoverFiles([]string{dir}, true, utils.IsSupportedImage, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a_slip.JPG", "b_slip.png", "c_slip.tiff"}, baseNames(files))
}

func TestDiscoverFiles_TextMode(t *testing.T) {
	dir := setupTree(t)

	files, err := discoverFiles([]string{dir}, true, isTextFile, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"more.txt", "notes.txt"}, baseNames(files))
}

func TestDiscoverFiles_IncludeExclude(t *testing.T) {
	dir := setupTree(t)

	files, err := discoverFiles([]string{dir}, true, utils.IsSupportedImage, []string{"*_SLIP.*"}, []string{"b_*"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a_slip.JPG", "c_slip.tiff"}, baseNames(files))
}

func TestDiscoverFiles_ExplicitFileBypassesExtension(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	path := testutil.WriteFile(t, dir, "scan.dat", []byte("x"))

	files, err := discoverFiles([]string{path}, false, utils.IsSupportedImage, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)
}

func TestDiscoverFiles_MissingPath(t *testing.T) {
	_, err := discoverFiles([]string{filepath.Join(t.TempDir(), "missing")}, false, utils.IsSupportedImage, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot access")
}

func TestMatchesAnyPattern(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		patterns []string
		want     bool
	}{
		{"no patterns", "/a/slip.png", nil, false},
		{"exact", "/a/slip.png", []string{"slip.png"}, true},
		{"glob", "/a/slip.png", []string{"*.png"}, true},
		{"case insensitive", "/a/SLIP.PNG", []string{"slip*"}, true},
		{"directory part ignored", "/slips/x.png", []string{"slips*"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesAnyPattern(tt.path, tt.patterns))
		})
	}
}

func TestAcceptFor(t *testing.T) {
	assert.True(t, acceptFor(&Config{TextInput: true})("a.TXT"))
	assert.False(t, acceptFor(&Config{TextInput: true})("a.png"))
	assert.True(t, acceptFor(&Config{})("a.png"))
	assert.False(t, acceptFor(&Config{})("a.txt"))
}

func TestDiscoverFiles_IncludesPDF(t *testing.T) {
	dir := setupTree(t)
	testutil.WriteFile(t, dir, "d_scan.PDF", []byte("x"))

	files, err := discoverFiles([]string{dir}, false, acceptFor(&Config{}), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a_slip.JPG", "b_slip.png", "d_scan.PDF"}, baseNames(files))

	files, err = discoverFiles([]string{dir}, false, acceptFor(&Config{TextInput: true}), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.txt"}, baseNames(files))
}
