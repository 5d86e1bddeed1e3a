package aqi

import (
	"math"
	"testing"
)

func TestPresetsValidate(t *testing.T) {
	for _, s := range []Scale{EPA2024, Legacy} {
		if err := s.Validate(); err != nil {
			t.Errorf("scale %s failed validation: %v", s.Name, err)
		}
	}
}

func TestScaleByName(t *testing.T) {
	if s, err := ScaleByName("epa2024"); err != nil || s.Name != "epa2024" {
		t.Errorf("ScaleByName(epa2024) = %v, %v", s.Name, err)
	}
	if s, err := ScaleByName("legacy"); err != nil || s.Name != "legacy" {
		t.Errorf("ScaleByName(legacy) = %v, %v", s.Name, err)
	}
	if _, err := ScaleByName("epa2012"); err == nil {
		t.Error("ScaleByName(epa2012) should fail")
	}
}

func TestConvertBandBoundaries(t *testing.T) {
	// Band endpoints must map exactly onto index endpoints.
	for _, s := range []Scale{EPA2024, Legacy} {
		for i, b := range s.Bands {
			got, err := s.Convert(b.CLow)
			if err != nil {
				t.Fatalf("%s band %d Convert(%.1f): %v", s.Name, i, b.CLow, err)
			}
			if got != b.ILow {
				t.Errorf("%s Convert(%.1f) = %d, want %d", s.Name, b.CLow, got, b.ILow)
			}
			got, err = s.Convert(b.CHigh)
			if err != nil {
				t.Fatalf("%s band %d Convert(%.1f): %v", s.Name, i, b.CHigh, err)
			}
			if got != b.IHigh {
				t.Errorf("%s Convert(%.1f) = %d, want %d", s.Name, b.CHigh, got, b.IHigh)
			}
		}
	}
}

func TestConvertMonotonic(t *testing.T) {
	for _, s := range []Scale{EPA2024, Legacy} {
		prev := -1
		for c := 0.0; c <= 600.0; c += 0.1 {
			got, err := s.Convert(c)
			if err != nil {
				t.Fatalf("%s Convert(%.1f): %v", s.Name, c, err)
			}
			if got < prev {
				t.Fatalf("%s Convert not monotonic at %.1f: %d < %d", s.Name, c, got, prev)
			}
			prev = got
		}
	}
}

func TestConvertCap(t *testing.T) {
	tests := []struct {
		scale Scale
		c     float64
		want  int
	}{
		{EPA2024, 325.4, 500},
		{EPA2024, 400.0, 500},
		{EPA2024, 9999.0, 500},
		{Legacy, 500.4, 500},
		{Legacy, 800.0, 500},
	}
	for _, tt := range tests {
		got, err := tt.scale.Convert(tt.c)
		if err != nil {
			t.Fatalf("%s Convert(%.1f): %v", tt.scale.Name, tt.c, err)
		}
		if got != tt.want {
			t.Errorf("%s Convert(%.1f) = %d, want %d", tt.scale.Name, tt.c, got, tt.want)
		}
	}
}

func TestConvertTruncation(t *testing.T) {
	// The EPA equation truncates input to 0.1 µg/m³, so 9.05 scores as 9.0.
	got, err := EPA2024.Convert(9.05)
	if err != nil {
		t.Fatal(err)
	}
	if got != 50 {
		t.Errorf("Convert(9.05) = %d, want 50", got)
	}
}

func TestScalesDiverge(t *testing.T) {
	// The two tables disagree at their first boundary; picking the wrong one
	// changes results for identical input.
	tests := []struct {
		scale Scale
		c     float64
		want  int
	}{
		{Legacy, 12.0, 50},
		{Legacy, 12.1, 51},
		{EPA2024, 9.0, 50},
		{EPA2024, 9.1, 51},
		{EPA2024, 12.0, 56},
	}
	for _, tt := range tests {
		got, err := tt.scale.Convert(tt.c)
		if err != nil {
			t.Fatalf("%s Convert(%.1f): %v", tt.scale.Name, tt.c, err)
		}
		if got != tt.want {
			t.Errorf("%s Convert(%.1f) = %d, want %d", tt.scale.Name, tt.c, got, tt.want)
		}
	}
}

func TestConvertInvalidInput(t *testing.T) {
	if _, err := EPA2024.Convert(-1.0); err == nil {
		t.Error("Convert(-1) should fail")
	}
	if _, err := EPA2024.Convert(math.NaN()); err == nil {
		t.Error("Convert(NaN) should fail")
	}
}

func TestMalformedScale(t *testing.T) {
	overlap := Scale{
		Name: "overlap",
		Bands: []Band{
			{0.0, 12.0, 0, 50},
			{11.0, 35.4, 51, 100},
		},
		Cap: 500,
	}
	if err := overlap.Validate(); err == nil {
		t.Error("overlapping scale should fail validation")
	}

	gapped := Scale{
		Name: "gapped",
		Bands: []Band{
			{0.0, 12.0, 0, 50},
			{20.0, 35.4, 51, 100},
		},
		Cap: 500,
	}
	if err := gapped.Validate(); err == nil {
		t.Error("gapped scale should fail validation")
	}
	// A concentration inside the gap must surface an error, not a wrong number.
	if _, err := gapped.Convert(15.0); err == nil {
		t.Error("Convert inside a gap should fail")
	}
}

func TestScoreUnknown(t *testing.T) {
	res, err := EPA2024.Score(nil)
	if err != nil {
		t.Fatalf("Score(nil): %v", err)
	}
	if res.Index.Valid {
		t.Error("Score(nil) should produce an unknown index")
	}
	if res.Category != CategoryUnknown {
		t.Errorf("category = %q, want %q", res.Category, CategoryUnknown)
	}
	if res.Color != ColorUnknown {
		t.Errorf("color = %q, want %q", res.Color, ColorUnknown)
	}
}

func TestScoreZeroIsNotUnknown(t *testing.T) {
	zero := 0.0
	res, err := EPA2024.Score(&zero)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Index.Valid || res.Index.Value != 0 {
		t.Errorf("Score(0) = %+v, want valid index 0", res.Index)
	}
	if res.Category != CategoryGood {
		t.Errorf("category = %q, want %q", res.Category, CategoryGood)
	}
}

func TestCategoryBoundaries(t *testing.T) {
	tests := []struct {
		value int
		want  string
	}{
		{0, CategoryGood},
		{50, CategoryGood},
		{51, CategoryModerate},
		{100, CategoryModerate},
		{101, CategoryUSG},
		{150, CategoryUSG},
		{151, CategoryUnhealthy},
		{200, CategoryUnhealthy},
		{201, CategoryVery},
		{300, CategoryVery},
		{301, CategoryHazardous},
		{500, CategoryHazardous},
	}
	for _, tt := range tests {
		got := Category(Index{Value: tt.value, Valid: true})
		if got != tt.want {
			t.Errorf("Category(%d) = %q, want %q", tt.value, got, tt.want)
		}
	}
}
