package ocr

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeImageFlattensAndHalves(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	// Transparent everywhere except a black square in the top-left quarter.
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			src.Set(x, y, color.NRGBA{A: 255})
		}
	}
	var in bytes.Buffer
	require.NoError(t, png.Encode(&in, src))

	out, err := NormalizeImage(&in)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 10), img.Bounds())

	r, g, b, a := img.At(17, 8).RGBA()
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff, 0xffff}, []uint32{r, g, b, a}, "transparent area becomes white")

	r, g, b, _ = img.At(2, 2).RGBA()
	assert.Less(t, r+g+b, uint32(0x3000), "drawn area stays dark")
}

func TestNormalizeImageRejectsGarbage(t *testing.T) {
	_, err := NormalizeImage(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestNormalizeImageTinyInput(t *testing.T) {
	var in bytes.Buffer
	require.NoError(t, png.Encode(&in, image.NewGray(image.Rect(0, 0, 1, 1))))

	out, err := NormalizeImage(&in)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 1, img.Bounds().Dx())
}
