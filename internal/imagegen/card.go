package imagegen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/fireaq/fireaq/internal/aqi"
)

const (
	cardWidth  = 600
	cardHeight = 315
)

// Card renders a shareable AQI status banner. The background is the EPA
// category color; text flips to black on the light Good/Moderate backgrounds.
func Card(res aqi.Result, city string, at time.Time) ([]byte, error) {
	bg, err := parseHexColor(res.Color)
	if err != nil {
		return nil, fmt.Errorf("parse category color: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, cardWidth, cardHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{bg}, image.Point{}, draw.Src)

	fg := color.RGBA{255, 255, 255, 255}
	if isLight(bg) {
		fg = color.RGBA{0, 0, 0, 255}
	}

	headline := "AQI unavailable"
	if res.Index.Valid {
		headline = fmt.Sprintf("AQI %d", res.Index.Value)
	}

	drawScaledText(img, headline, 40, 40, 6, fg)
	drawScaledText(img, res.Category, 40, 150, 3, fg)
	drawScaledText(img, city, 40, 230, 2, fg)
	drawScaledText(img, at.UTC().Format("2006-01-02 15:04 UTC"), 40, 265, 2, fg)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// drawScaledText rasterizes text with the built-in bitmap face and scales it
// up with nearest-neighbor so the card doesn't need bundled font files.
func drawScaledText(dst *image.RGBA, text string, x, y, scale int, col color.RGBA) {
	if text == "" {
		return
	}

	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil()
	h := face.Height

	small := image.NewRGBA(image.Rect(0, 0, w, h))
	d := font.Drawer{
		Dst:  small,
		Src:  &image.Uniform{col},
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(text)

	target := image.Rect(x, y, x+w*scale, y+h*scale)
	xdraw.NearestNeighbor.Scale(dst, target, small, small.Bounds(), xdraw.Over, nil)
}

func parseHexColor(s string) (color.RGBA, error) {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{r, g, b, 255}, nil
}

// isLight reports whether text should be dark to stay readable.
func isLight(c color.RGBA) bool {
	luma := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
	return luma > 150
}
