package safe

import (
	"strings"
	"testing"
)

func TestNewProduct(t *testing.T) {
	p := fixtureProduct(t)

	if p.SafeName != "S1A_IW_SLC__1SDV_20200604T022251_20200604T022318_032861_03CE65_7C85.SAFE" {
		t.Errorf("SafeName = %q", p.SafeName)
	}
	if p.Platform != "S1A" {
		t.Errorf("Platform = %q, want S1A", p.Platform)
	}
	if p.RelativeOrbit != 64 {
		t.Errorf("RelativeOrbit = %d, want 64", p.RelativeOrbit)
	}
	if p.AbsoluteOrbit != 32861 {
		t.Errorf("AbsoluteOrbit = %d, want 32861", p.AbsoluteOrbit)
	}
	if p.OrbitDirection != "ascending" {
		t.Errorf("OrbitDirection = %q, want ascending", p.OrbitDirection)
	}
	if p.NSwaths != 1 {
		t.Errorf("NSwaths = %d, want 1", p.NSwaths)
	}

	if len(p.Polarizations) != 1 || p.Polarizations[0] != "vv" {
		t.Errorf("Polarizations = %v, want [vv]", p.Polarizations)
	}

	if len(p.MeasurementPaths) != 1 {
		t.Fatalf("MeasurementPaths = %v, want 1 entry", p.MeasurementPaths)
	}
	if !strings.HasPrefix(p.MeasurementPaths[0], "measurement/") {
		t.Errorf("MeasurementPaths[0] = %q, want measurement/ prefix", p.MeasurementPaths[0])
	}
	if len(p.AnnotationPaths) != 1 {
		t.Fatalf("AnnotationPaths = %v, want 1 entry", p.AnnotationPaths)
	}

	// No IW2 sub-swath in the fixture.
	if p.IW2MidRange != 0 {
		t.Errorf("IW2MidRange = %f, want 0", p.IW2MidRange)
	}
}

func TestNewProduct_NilManifest(t *testing.T) {
	annotation, err := ParseXML(strings.NewReader(fixtureAnnotationXML))
	if err != nil {
		t.Fatalf("ParseXML() error: %v", err)
	}

	_, err = NewProduct(fixtureSafeURL, nil, map[string]*Node{fixtureAnnotationPath: annotation})
	if err == nil {
		t.Error("NewProduct() with nil manifest should return error")
	}
}

func TestNewProduct_NoAnnotations(t *testing.T) {
	manifest, err := ParseXML(strings.NewReader(fixtureManifestXML))
	if err != nil {
		t.Fatalf("ParseXML() error: %v", err)
	}

	if _, err := NewProduct(fixtureSafeURL, manifest, nil); err == nil {
		t.Error("NewProduct() with no annotations should return error")
	}
}

func TestSafeNameFromURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "zip url",
			url:  "https://example.com/data/S1A_IW_SLC__1SDV_20200604T022251_20200604T022318_032861_03CE65_7C85.zip",
			want: "S1A_IW_SLC__1SDV_20200604T022251_20200604T022318_032861_03CE65_7C85.SAFE",
		},
		{
			name: "query string ignored",
			url:  "https://example.com/data/S1B_IW_SLC__1SDV_20200101T000000_20200101T000027_019641_025191_ABCD.zip?token=x",
			want: "S1B_IW_SLC__1SDV_20200101T000000_20200101T000027_019641_025191_ABCD.SAFE",
		},
		{
			name:    "no file component",
			url:     "https://example.com/",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SafeNameFromURL(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Errorf("SafeNameFromURL(%q) should return error", tt.url)
				}
				return
			}
			if err != nil {
				t.Fatalf("SafeNameFromURL(%q) error: %v", tt.url, err)
			}
			if got != tt.want {
				t.Errorf("SafeNameFromURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestAnnotationKeys(t *testing.T) {
	p := fixtureProduct(t)
	keys := p.AnnotationKeys()
	if len(keys) != 1 || keys[0] != fixtureAnnotationPath {
		t.Errorf("AnnotationKeys() = %v", keys)
	}
	if p.Annotation(fixtureAnnotationPath) == nil {
		t.Error("Annotation() returned nil for known key")
	}
	if p.Annotation("annotation/missing.xml") != nil {
		t.Error("Annotation() should return nil for unknown key")
	}
}
