// Package burst turns parsed swath metadata into fully addressed burst
// records: stable identity, byte range inside the measurement file, and
// geodetic footprint.
package burst

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rkm/s1burst/internal/safe"
	"github.com/rkm/s1burst/pkg/geojson"
)

// ErrInconsistentLayout is returned when the byte stride between consecutive
// bursts is not identical across the whole burst list. All bursts of one
// swath share raster dimensions, so a disagreeing stride means the layout
// assumption is violated and nothing in the swath can be addressed safely.
var ErrInconsistentLayout = errors.New("inconsistent burst byte layout")

// Burst is the atomic retrievable unit: one burst index within one swath.
// It holds a read-only reference to its swath context and is immutable after
// construction.
type Burst struct {
	Swath *safe.SwathContext
	Index int

	// ID is the stable identity string combining date, polarization,
	// relative burst ID and sub-swath index.
	ID         string
	RelativeID int
	StackID    string // relative ID + sub-swath, shared across dates

	SensingStart time.Time
	AzimuthANX   float64

	// ByteOffset and ByteLength address the burst's raster record inside the
	// uncompressed measurement file.
	ByteOffset int64
	ByteLength int64
	Lines      int
	Samples    int

	// InteriorPath locates the measurement file inside the product archive.
	InteriorPath string

	Footprint *geojson.Geometry
	BBox      []float64 // [west, south, east, north]
	CenterLon float64
	CenterLat float64

	AzimuthFMRate safe.TimedPoly
	Doppler       safe.TimedPoly

	FirstValidSample int
	LastValidSample  int
	FirstValidLine   int
	LastValidLine    int
}

// FromSwath addresses every burst of a swath. Any failure is fatal for the
// whole swath: bad metadata cannot be partially trusted.
func FromSwath(sw *safe.SwathContext) ([]*Burst, error) {
	mode, err := ParseMode(sw.Mode)
	if err != nil {
		return nil, err
	}

	stride, err := byteStride(sw.Bursts)
	if err != nil {
		return nil, err
	}

	interiorPath := path.Join(sw.Product.SafeName, sw.MeasurementPath)

	bursts := make([]*Burst, 0, sw.NBursts)
	for i, rec := range sw.Bursts {
		b := &Burst{
			Swath:        sw,
			Index:        i,
			SensingStart: rec.AzimuthTime,
			AzimuthANX:   rec.AzimuthANX,
			ByteOffset:   rec.ByteOffset,
			ByteLength:   stride,
			Lines:        sw.LinesPerBurst,
			Samples:      sw.SamplesPerBurst,
			InteriorPath: interiorPath,
		}

		b.RelativeID = RelativeBurstID(sw.Product.RelativeOrbit, rec.AzimuthANX, mode)
		b.StackID = fmt.Sprintf("%d_%s%d", b.RelativeID, mode, sw.SwathIndex+1)
		b.ID = fmt.Sprintf("S1_SLC_%s_%s_%d_%s%d",
			rec.AzimuthTime.Format("20060102T150405"),
			strings.ToUpper(sw.Polarization),
			b.RelativeID, mode, sw.SwathIndex+1)

		if b.Footprint, err = footprint(sw, i); err != nil {
			return nil, fmt.Errorf("burst %d: %w", i, err)
		}
		if b.BBox, err = b.Footprint.BBox(); err != nil {
			return nil, fmt.Errorf("burst %d: %w", i, err)
		}
		if b.CenterLon, b.CenterLat, err = b.Footprint.Centroid(); err != nil {
			return nil, fmt.Errorf("burst %d: %w", i, err)
		}

		midTime := rec.AzimuthTime.Add(
			time.Duration(0.5 * float64(sw.LinesPerBurst-1) * sw.AzimuthTimeInterval * float64(time.Second)))
		if b.AzimuthFMRate, err = safe.NearestPoly(sw.AzimuthFMRates, midTime); err != nil {
			return nil, fmt.Errorf("burst %d: %w", i, err)
		}
		if b.Doppler, err = safe.NearestPoly(sw.Dopplers, midTime); err != nil {
			return nil, fmt.Errorf("burst %d: %w", i, err)
		}

		if err = b.setValidExtent(rec); err != nil {
			return nil, fmt.Errorf("burst %d: %w", i, err)
		}

		bursts = append(bursts, b)
	}
	return bursts, nil
}

// byteStride computes the fixed distance between consecutive burst records
// and verifies that every adjacent pair agrees.
func byteStride(records []safe.BurstRecord) (int64, error) {
	if len(records) < 2 {
		return 0, fmt.Errorf("%w: need at least 2 bursts to derive the byte stride, got %d",
			ErrInconsistentLayout, len(records))
	}

	stride := records[1].ByteOffset - records[0].ByteOffset
	if stride <= 0 {
		return 0, fmt.Errorf("%w: non-positive stride %d between bursts 0 and 1",
			ErrInconsistentLayout, stride)
	}
	for i := 1; i < len(records)-1; i++ {
		if got := records[i+1].ByteOffset - records[i].ByteOffset; got != stride {
			return 0, fmt.Errorf("%w: bursts %d-%d have stride %d, expected %d",
				ErrInconsistentLayout, i, i+1, got, stride)
		}
	}
	return stride, nil
}

// footprint builds the burst's ground quadrilateral from the geolocation grid
// rows bounding the burst: the first row in pixel order, the second row
// reversed, ring closed.
func footprint(sw *safe.SwathContext, index int) (*geojson.Geometry, error) {
	firstRow := sw.GridRow(index * sw.LinesPerBurst)
	secondRow := sw.GridRow((index + 1) * sw.LinesPerBurst)
	if len(firstRow) == 0 || len(secondRow) == 0 {
		return nil, fmt.Errorf("geolocation grid has no rows at lines %d and %d",
			index*sw.LinesPerBurst, (index+1)*sw.LinesPerBurst)
	}

	ring := make([][]float64, 0, len(firstRow)+len(secondRow))
	for _, pt := range firstRow {
		ring = append(ring, []float64{pt.Longitude, pt.Latitude})
	}
	for i := len(secondRow) - 1; i >= 0; i-- {
		ring = append(ring, []float64{secondRow[i].Longitude, secondRow[i].Latitude})
	}
	return geojson.NewPolygon(ring)
}

// setValidExtent derives the valid-data window from the per-line first/last
// valid sample arrays.
func (b *Burst) setValidExtent(rec safe.BurstRecord) error {
	firstLine, lastLine := -1, -1
	for i, v := range rec.FirstValidSamples {
		if v >= 0 {
			if firstLine < 0 {
				firstLine = i
			}
			lastLine = i
		}
	}
	if firstLine < 0 {
		return fmt.Errorf("burst has no valid lines")
	}
	if lastLine >= len(rec.LastValidSamples) {
		return fmt.Errorf("firstValidSample and lastValidSample lengths disagree")
	}

	b.FirstValidLine = firstLine
	b.LastValidLine = lastLine
	b.FirstValidSample = max(rec.FirstValidSamples[firstLine], rec.FirstValidSamples[lastLine])
	b.LastValidSample = min(rec.LastValidSamples[firstLine], rec.LastValidSamples[lastLine])
	return nil
}
