package imagegen

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/fireaq/fireaq/internal/aqi"
)

func TestCardRendersPNG(t *testing.T) {
	res := aqi.Result{
		Index:    aqi.Index{Value: 142, Valid: true},
		Category: aqi.CategoryUSG,
		Color:    aqi.ColorUSG,
	}

	data, err := Card(res, "Los Angeles", time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Card: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != cardWidth || bounds.Dy() != cardHeight {
		t.Errorf("card size = %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), cardWidth, cardHeight)
	}

	// The background should be the category color.
	r, g, b, _ := img.At(5, 5).RGBA()
	if r>>8 != 0xff || g>>8 != 0x7e || b>>8 != 0x00 {
		t.Errorf("background = #%02x%02x%02x, want #ff7e00", r>>8, g>>8, b>>8)
	}
}

func TestCardUnknownIndex(t *testing.T) {
	res := aqi.Result{Category: aqi.CategoryUnknown, Color: aqi.ColorUnknown}

	data, err := Card(res, "Los Angeles", time.Now())
	if err != nil {
		t.Fatalf("Card: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("decode png: %v", err)
	}
}

func TestCardBadColor(t *testing.T) {
	res := aqi.Result{Color: "not-a-color"}
	if _, err := Card(res, "Los Angeles", time.Now()); err == nil {
		t.Fatal("expected error for malformed color")
	}
}

func TestCacheRoundTrip(t *testing.T) {
	cache := NewCache(t.TempDir())

	if _, ok := cache.Get("usg"); ok {
		t.Fatal("empty cache should miss")
	}

	payload := []byte("png-bytes")
	if err := cache.Set("usg", payload); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok := cache.Get("usg")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(got) != string(payload) {
		t.Errorf("cached data = %q, want %q", got, payload)
	}
}

func TestCacheStale(t *testing.T) {
	cache := NewCache(t.TempDir())
	cache.maxAge = -time.Second

	if err := cache.Set("good", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if _, ok := cache.Get("good"); ok {
		t.Error("expired entries should miss")
	}
}
