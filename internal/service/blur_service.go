package service

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"go.uber.org/zap"

	appErrors "github.com/neuroread/neuroread-api/pkg/errors"
)

// defaultBlurThreshold is the Laplacian-variance cutoff below which a
// handwriting sample is considered too blurry to analyze.
const defaultBlurThreshold = 100.0

// BlurCheck reports the sharpness estimate for an uploaded image.
type BlurCheck struct {
	BlurScore float64 `json:"blurScore"`
	Blurry    bool    `json:"blurry"`
}

// BlurService screens uploads before they reach the prediction service.
type BlurService struct {
	threshold float64
	logger    *zap.Logger
}

// NewBlurService constructs a BlurService with the default threshold.
func NewBlurService(logger *zap.Logger) *BlurService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlurService{threshold: defaultBlurThreshold, logger: logger}
}

// Check decodes the image and computes the variance of its Laplacian.
// Low variance means few edges, which for handwriting means a blurry scan.
func (s *BlurService) Check(r io.Reader) (*BlurCheck, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsupported or corrupt image")
	}

	gray := toGray(img)
	variance := laplacianVariance(gray)

	return &BlurCheck{BlurScore: variance, Blurry: variance < s.threshold}, nil
}

func toGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray
}

// laplacianVariance applies the 4-neighbour Laplacian kernel and returns
// the variance of the responses over the interior pixels.
func laplacianVariance(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width < 3 || height < 3 {
		return 0
	}

	at := func(x, y int) float64 {
		return float64(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
	}

	n := 0
	sum := 0.0
	sumSq := 0.0
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			lap := at(x-1, y) + at(x+1, y) + at(x, y-1) + at(x, y+1) - 4*at(x, y)
			sum += lap
			sumSq += lap * lap
			n++
		}
	}

	mean := sum / float64(n)
	return sumSq/float64(n) - mean*mean
}
