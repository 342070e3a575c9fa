package service

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/neuroread/neuroread-api/pkg/errors"
)

func encodePNG(t *testing.T, img image.Image) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf
}

func checkerboard(size int) image.Image {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x+y)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func flatGray(size int) image.Image {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetGray(x, y, color.Gray{Y: 128})
		}
	}
	return img
}

func TestBlurServiceSharpImage(t *testing.T) {
	svc := NewBlurService(nil)

	check, err := svc.Check(encodePNG(t, checkerboard(32)))
	require.NoError(t, err)
	assert.False(t, check.Blurry)
	assert.Greater(t, check.BlurScore, defaultBlurThreshold)
}

func TestBlurServiceFlatImage(t *testing.T) {
	svc := NewBlurService(nil)

	check, err := svc.Check(encodePNG(t, flatGray(32)))
	require.NoError(t, err)
	assert.True(t, check.Blurry)
	assert.InDelta(t, 0, check.BlurScore, 1e-9)
}

func TestBlurServiceInvalidImage(t *testing.T) {
	svc := NewBlurService(nil)

	_, err := svc.Check(strings.NewReader("not an image"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
