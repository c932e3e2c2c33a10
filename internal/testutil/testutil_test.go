package testutil

import (
	"context"
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/slipscan/internal/ocr"
	"github.com/MeKo-Tech/slipscan/internal/utils"
)

func TestGetProjectRoot(t *testing.T) {
	root, err := GetProjectRootValidated()
	require.NoError(t, err)
	assert.True(t, FileExists(filepath.Join(root, "go.mod")))
}

func TestEnsureDir(t *testing.T) {
	testDir := filepath.Join(CreateTempDir(t), "test", "nested", "dir")
	require.NoError(t, EnsureDir(testDir))
	assert.True(t, DirExists(testDir))
	assert.False(t, FileExists("/non/existent/file"))
}

func TestWriteImage_RoundTrips(t *testing.T) {
	dir := CreateTempDir(t)
	for _, name := range []string{"a.png", "b.jpg", "c.bmp", "d.tiff", "e.gif"} {
		path := WriteImage(t, dir, name, CreateTestImage(48, 24, true))
		img, meta, err := utils.LoadImage(path)
		require.NoError(t, err, name)
		assert.Equal(t, 48, meta.Width)
		assert.Equal(t, image.Rect(0, 0, 48, 24), img.Bounds())
	}
}

func TestStaticEngine(t *testing.T) {
	e := StaticEngine(SlipStandard, 90)
	rec, err := e.Recognize(context.Background(), CreateTestImage(4, 4, false), ocr.FallbackConfig())
	require.NoError(t, err)
	assert.Equal(t, SlipStandard, rec.Text)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Recognize(ctx, CreateTestImage(4, 4, false), ocr.FallbackConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderSlip(t *testing.T) {
	img := RenderSlip([]string{"Account Number: 1234567890123", "Amount: Rs. 15,750.50"}, 2)
	b := img.Bounds()
	assert.Greater(t, b.Dx(), 2*len("Account Number: 1234567890123")*7)
	assert.Zero(t, b.Dy()%2)

	ink := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r < 0x8000 {
				ink++
			}
		}
	}
	assert.Positive(t, ink)
	assert.Less(t, ink, b.Dx()*b.Dy()/2, "mostly paper")
}

func TestSampleSlips(t *testing.T) {
	names := map[string]bool{}
	for _, s := range SampleSlips() {
		assert.NotEmpty(t, s.Text, s.Name)
		assert.False(t, names[s.Name], "duplicate %s", s.Name)
		names[s.Name] = true
	}
	assert.True(t, names["standard"])
}
