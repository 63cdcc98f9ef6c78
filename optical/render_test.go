package optical

import (
	"bytes"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyoez/qrdrop/envelope"
	"github.com/moyoez/qrdrop/types"
)

func isBlackOrWhite(c color.Color) bool {
	r, g, b, a := c.RGBA()
	if a != 0xffff {
		return false
	}
	return (r == 0 && g == 0 && b == 0) || (r == 0xffff && g == 0xffff && b == 0xffff)
}

func TestRenderIsSquareTwoColour(t *testing.T) {
	env, err := envelope.Build([]byte("0123456789"), "notes.txt", types.CategoryAssignments)
	require.NoError(t, err)

	img, err := NewRenderer(DefaultSize, qrcode.Low).Render(env)
	require.NoError(t, err)

	bounds := img.Bounds()
	assert.Equal(t, DefaultSize, bounds.Dx())
	assert.Equal(t, DefaultSize, bounds.Dy())

	var dark, light int
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 3 {
		for x := bounds.Min.X; x < bounds.Max.X; x += 3 {
			c := img.At(x, y)
			require.True(t, isBlackOrWhite(c), "pixel %d,%d is %v", x, y, c)
			if r, _, _, _ := c.RGBA(); r == 0 {
				dark++
			} else {
				light++
			}
		}
	}
	assert.Positive(t, dark)
	assert.Positive(t, light)
	assert.True(t, isBlackOrWhite(img.At(0, 0)))
	r, _, _, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r, "quiet zone is white")
}

func TestRenderPNG(t *testing.T) {
	env, err := envelope.Build([]byte("abc"), "a.txt", types.CategoryOthers)
	require.NoError(t, err)

	data, err := NewRenderer(256, qrcode.Medium).PNG(env)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
}

func TestMatrixIsSquare(t *testing.T) {
	m, err := NewRenderer(DefaultSize, qrcode.Low).Matrix("hello")
	require.NoError(t, err)
	require.NotEmpty(t, m)
	for _, row := range m {
		assert.Len(t, row, len(m))
	}
}

func TestPayloadTooLarge(t *testing.T) {
	for _, level := range []qrcode.RecoveryLevel{qrcode.Low, qrcode.Medium, qrcode.High, qrcode.Highest} {
		r := NewRenderer(DefaultSize, level)
		_, err := r.RenderText(strings.Repeat("x", r.Capacity()+1))
		require.ErrorIs(t, err, types.ErrPayloadTooLarge)
	}

	big, err := envelope.Build(bytes.Repeat([]byte{0xAB}, 4096), "big.bin", types.CategoryOthers)
	require.NoError(t, err)
	_, err = NewRenderer(DefaultSize, qrcode.Low).Render(big)
	require.ErrorIs(t, err, types.ErrPayloadTooLarge)
}

func TestNearCapacityRenders(t *testing.T) {
	r := NewRenderer(DefaultSize, qrcode.Highest)
	_, err := r.RenderText(strings.Repeat("q", r.Capacity()-50))
	require.NoError(t, err)
}

func TestMaxFileSizeFits(t *testing.T) {
	r := NewRenderer(DefaultSize, qrcode.Medium)
	n := r.MaxFileSize("notes.txt", types.CategoryLectureNotes)
	require.Positive(t, n)

	env, err := envelope.Build(bytes.Repeat([]byte{7}, n), "notes.txt", types.CategoryLectureNotes)
	require.NoError(t, err)
	text, err := env.Marshal()
	require.NoError(t, err)
	assert.LessOrEqual(t, len(text), r.Capacity())
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, qrcode.Low, level)

	level, err = ParseLevel("Highest")
	require.NoError(t, err)
	assert.Equal(t, qrcode.Highest, level)

	_, err = ParseLevel("ultra")
	require.Error(t, err)
}
