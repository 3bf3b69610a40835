package infra

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/kbinani/screenshot"

	"github.com/eliteGoblin/focusd/night_mon/internal/domain"
)

// jpegQuality trades size against what the vision model needs to read text
// on screen. 80 keeps a 1080p grab under ~300KB.
const jpegQuality = 80

// DisplayCapturer implements domain.ScreenCapturer for the primary display.
type DisplayCapturer struct{}

// NewDisplayCapturer creates a screen capturer.
func NewDisplayCapturer() *DisplayCapturer {
	return &DisplayCapturer{}
}

// Capture grabs display 0 and encodes it as JPEG.
func (c *DisplayCapturer) Capture() ([]byte, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return nil, fmt.Errorf("no active displays")
	}

	img, err := screenshot.CaptureDisplay(0)
	if err != nil {
		return nil, fmt.Errorf("failed to capture display: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode capture: %w", err)
	}
	return buf.Bytes(), nil
}

// Ensure DisplayCapturer implements domain.ScreenCapturer.
var _ domain.ScreenCapturer = (*DisplayCapturer)(nil)
