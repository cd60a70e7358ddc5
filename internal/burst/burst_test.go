package burst

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/rkm/s1burst/internal/safe"
)

func testSwath() *safe.SwathContext {
	base := time.Date(2020, 6, 4, 2, 22, 53, 618828000, time.UTC)
	burstInterval := 2.758273 // one beam cycle between consecutive bursts

	p := &safe.Product{
		SafeURL:       "https://example.com/S1A_IW_SLC__1SDV_20200604T022251_20200604T022318_032861_03CE65_7C85.zip",
		SafeName:      "S1A_IW_SLC__1SDV_20200604T022251_20200604T022318_032861_03CE65_7C85.SAFE",
		Platform:      "S1A",
		RelativeOrbit: 64,
		AbsoluteOrbit: 32861,
	}

	sw := &safe.SwathContext{
		Product:             p,
		Polarization:        "vv",
		SwathIndex:          0,
		Mode:                "IW",
		MeasurementPath:     "measurement/s1a-iw1-slc-vv.tiff",
		NBursts:             2,
		LinesPerBurst:       2,
		SamplesPerBurst:     3,
		AzimuthTimeInterval: 2.055556280538330e-03,
		AzimuthFMRates: []safe.TimedPoly{
			{Time: base, Coeffs: []float64{-2325.739}},
			{Time: base.Add(3 * time.Second), Coeffs: []float64{-2326.104}},
		},
		Dopplers: []safe.TimedPoly{
			{Time: base, Coeffs: []float64{-1.5}},
		},
	}

	for _, line := range []int{0, 2, 4} {
		lat := 37.9 - 0.1*float64(line/2)
		sw.Grid = append(sw.Grid,
			safe.GridPoint{Line: line, Pixel: 0, Latitude: lat, Longitude: -122.5 - 0.01*float64(line/2)},
			safe.GridPoint{Line: line, Pixel: 2, Latitude: lat, Longitude: -122.4 - 0.01*float64(line/2)},
		)
	}

	for i := 0; i < 2; i++ {
		sw.Bursts = append(sw.Bursts, safe.BurstRecord{
			AzimuthTime:       base.Add(time.Duration(float64(i) * burstInterval * float64(time.Second))),
			SensingTime:       base.Add(time.Duration(float64(i)*burstInterval*float64(time.Second)) + time.Second),
			AzimuthANX:        2082.746447 + float64(i)*burstInterval,
			ByteOffset:        int64(10 + 24*i),
			FirstValidSamples: []int{0, 0},
			LastValidSamples:  []int{2, 2},
		})
	}

	return sw
}

func TestFromSwath(t *testing.T) {
	sw := testSwath()
	bursts, err := FromSwath(sw)
	if err != nil {
		t.Fatalf("FromSwath() error: %v", err)
	}
	if len(bursts) != 2 {
		t.Fatalf("FromSwath() returned %d bursts, want 2", len(bursts))
	}

	for i, b := range bursts {
		if b.Swath != sw {
			t.Errorf("burst %d does not reference the shared swath context", i)
		}
		if b.Index != i {
			t.Errorf("burst %d has Index %d", i, b.Index)
		}
		if b.ByteLength != 24 {
			t.Errorf("burst %d ByteLength = %d, want 24", i, b.ByteLength)
		}
		if b.Lines != 2 || b.Samples != 3 {
			t.Errorf("burst %d shape = %d×%d, want 2×3", i, b.Lines, b.Samples)
		}
	}

	if bursts[0].ByteOffset != 10 || bursts[1].ByteOffset != 34 {
		t.Errorf("byte offsets = %d, %d, want 10, 34", bursts[0].ByteOffset, bursts[1].ByteOffset)
	}

	wantPath := sw.Product.SafeName + "/measurement/s1a-iw1-slc-vv.tiff"
	if bursts[0].InteriorPath != wantPath {
		t.Errorf("InteriorPath = %q, want %q", bursts[0].InteriorPath, wantPath)
	}
}

func TestFromSwath_Identity(t *testing.T) {
	sw := testSwath()
	bursts, err := FromSwath(sw)
	if err != nil {
		t.Fatalf("FromSwath() error: %v", err)
	}

	// Consecutive bursts one beam cycle apart get consecutive relative IDs.
	if bursts[1].RelativeID != bursts[0].RelativeID+1 {
		t.Errorf("relative IDs = %d, %d, want consecutive",
			bursts[0].RelativeID, bursts[1].RelativeID)
	}

	b := bursts[0]
	wantID := fmt.Sprintf("S1_SLC_20200604T022253_VV_%d_IW1", b.RelativeID)
	if b.ID != wantID {
		t.Errorf("ID = %q, want %q", b.ID, wantID)
	}
	wantStack := fmt.Sprintf("%d_IW1", b.RelativeID)
	if b.StackID != wantStack {
		t.Errorf("StackID = %q, want %q", b.StackID, wantStack)
	}
}

func TestFromSwath_Footprint(t *testing.T) {
	sw := testSwath()
	bursts, err := FromSwath(sw)
	if err != nil {
		t.Fatalf("FromSwath() error: %v", err)
	}

	coords, err := bursts[0].Footprint.Polygon()
	if err != nil {
		t.Fatalf("Polygon() error: %v", err)
	}
	ring := coords[0]

	// First grid row in pixel order, second row reversed, ring closed.
	want := [][]float64{
		{-122.5, 37.9},
		{-122.4, 37.9},
		{-122.41, 37.8},
		{-122.51, 37.8},
		{-122.5, 37.9},
	}
	if len(ring) != len(want) {
		t.Fatalf("ring has %d vertices, want %d", len(ring), len(want))
	}
	for i := range want {
		if math.Abs(ring[i][0]-want[i][0]) > 1e-9 || math.Abs(ring[i][1]-want[i][1]) > 1e-9 {
			t.Errorf("vertex %d = %v, want %v", i, ring[i], want[i])
		}
	}

	wantBBox := []float64{-122.51, 37.8, -122.4, 37.9}
	for i := range wantBBox {
		if math.Abs(bursts[0].BBox[i]-wantBBox[i]) > 1e-9 {
			t.Errorf("BBox = %v, want %v", bursts[0].BBox, wantBBox)
			break
		}
	}
}

func TestFromSwath_NearestPolynomials(t *testing.T) {
	sw := testSwath()
	bursts, err := FromSwath(sw)
	if err != nil {
		t.Fatalf("FromSwath() error: %v", err)
	}

	// Burst 0 mid-time is near its start; burst 1 is ~2.76 s later, closer to
	// the second FM-rate entry.
	if bursts[0].AzimuthFMRate.Coeffs[0] != -2325.739 {
		t.Errorf("burst 0 FM rate = %v, want first table entry", bursts[0].AzimuthFMRate.Coeffs)
	}
	if bursts[1].AzimuthFMRate.Coeffs[0] != -2326.104 {
		t.Errorf("burst 1 FM rate = %v, want second table entry", bursts[1].AzimuthFMRate.Coeffs)
	}
}

func TestFromSwath_InconsistentStride(t *testing.T) {
	sw := testSwath()
	sw.Bursts = append(sw.Bursts, safe.BurstRecord{
		AzimuthTime:       sw.Bursts[1].AzimuthTime.Add(3 * time.Second),
		AzimuthANX:        sw.Bursts[1].AzimuthANX + 2.758273,
		ByteOffset:        sw.Bursts[1].ByteOffset + 25, // off by one from the established stride
		FirstValidSamples: []int{0, 0},
		LastValidSamples:  []int{2, 2},
	})
	sw.NBursts = 3

	_, err := FromSwath(sw)
	if !errors.Is(err, ErrInconsistentLayout) {
		t.Errorf("FromSwath() error = %v, want ErrInconsistentLayout", err)
	}
}

func TestFromSwath_SingleBurst(t *testing.T) {
	sw := testSwath()
	sw.Bursts = sw.Bursts[:1]
	sw.NBursts = 1

	_, err := FromSwath(sw)
	if !errors.Is(err, ErrInconsistentLayout) {
		t.Errorf("FromSwath() error = %v, want ErrInconsistentLayout", err)
	}
}

func TestFromSwath_MissingGridRow(t *testing.T) {
	sw := testSwath()
	var trimmed []safe.GridPoint
	for _, pt := range sw.Grid {
		if pt.Line != 4 {
			trimmed = append(trimmed, pt)
		}
	}
	sw.Grid = trimmed

	if _, err := FromSwath(sw); err == nil {
		t.Error("FromSwath() with missing grid row should return error")
	}
}

func TestFromSwath_UnsupportedMode(t *testing.T) {
	sw := testSwath()
	sw.Mode = "SM"

	if _, err := FromSwath(sw); err == nil {
		t.Error("FromSwath() with unsupported mode should return error")
	}
}
