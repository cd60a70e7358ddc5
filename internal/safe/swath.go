package safe

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// GridPoint is one geolocation grid entry tying a raster (line, pixel)
// position to a geodetic coordinate.
type GridPoint struct {
	Line      int
	Pixel     int
	Latitude  float64
	Longitude float64
	Height    float64
}

// TimedPoly is a polynomial valid around a reference azimuth time. R0 is the
// slant-range origin of the polynomial in meters.
type TimedPoly struct {
	Time   time.Time
	R0     float64
	Coeffs []float64
}

// BurstRecord is the raw per-burst annotation entry before addressing.
type BurstRecord struct {
	AzimuthTime       time.Time
	SensingTime       time.Time
	AzimuthANX        float64 // seconds since ascending-node crossing
	ByteOffset        int64   // start of the burst inside the uncompressed measurement file
	FirstValidSamples []int
	LastValidSamples  []int
}

// SwathContext holds the per-swath metadata shared read-only by every burst
// of one polarization × sub-swath pair. Bursts reference it; they never copy
// its fields.
type SwathContext struct {
	Product      *Product
	Polarization string
	SwathIndex   int // zero-based
	Mode         string

	AnnotationPath  string
	MeasurementPath string

	NBursts         int
	LinesPerBurst   int
	SamplesPerBurst int

	RadarFrequency         float64
	Wavelength             float64
	AzimuthSteerRate       float64 // radians/s
	AzimuthTimeInterval    float64
	SlantRangeTime         float64
	StartingRange          float64
	RangeSamplingRate      float64
	RangePixelSpacing      float64
	RangeBandwidth         float64
	RangeWindowType        string
	RangeWindowCoefficient float64
	Rank                   int
	PRFRawData             float64
	RangeChirpRate         float64

	// AzimuthFMRates and Dopplers are sorted by reference time so nearest-time
	// selection is a forward scan.
	AzimuthFMRates []TimedPoly
	Dopplers       []TimedPoly

	// Grid is sorted by (line, pixel).
	Grid []GridPoint

	Bursts []BurstRecord
}

// NewSwath resolves the annotation/measurement pair for one polarization and
// sub-swath index of a product and parses the swath's annotation document.
func NewSwath(p *Product, polarization string, swathIndex int) (*SwathContext, error) {
	polarization = strings.ToLower(polarization)
	found := false
	for _, pol := range p.Polarizations {
		if pol == polarization {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("product %s has no %s polarization", p.SafeName, polarization)
	}

	pattern, err := regexp.Compile(fmt.Sprintf(`s1.-(?:iw|ew)%d-slc-%s`, swathIndex+1, polarization))
	if err != nil {
		return nil, err
	}

	sw := &SwathContext{
		Product:      p,
		Polarization: polarization,
		SwathIndex:   swathIndex,
	}

	for _, ap := range p.AnnotationKeys() {
		if pattern.MatchString(ap) {
			sw.AnnotationPath = ap
			break
		}
	}
	if sw.AnnotationPath == "" {
		return nil, fmt.Errorf("product %s: no annotation for %s/%d", p.SafeName, polarization, swathIndex+1)
	}
	for _, mp := range p.MeasurementPaths {
		if pattern.MatchString(mp) {
			sw.MeasurementPath = mp
			break
		}
	}
	if sw.MeasurementPath == "" {
		return nil, fmt.Errorf("product %s: no measurement for %s/%d", p.SafeName, polarization, swathIndex+1)
	}

	annotation := p.Annotation(sw.AnnotationPath)
	if annotation == nil {
		return nil, fmt.Errorf("product %s: annotation %s not loaded", p.SafeName, sw.AnnotationPath)
	}

	if err := sw.parseAnnotation(annotation); err != nil {
		return nil, fmt.Errorf("swath %s/%d: %w", polarization, swathIndex+1, err)
	}
	return sw, nil
}

func (sw *SwathContext) parseAnnotation(doc *Node) error {
	var err error

	if sw.Mode, err = doc.TextAt("adsHeader/mode"); err != nil {
		return err
	}

	declared, err := doc.IntAttrAt("swathTiming/burstList", "count")
	if err != nil {
		return err
	}
	if sw.LinesPerBurst, err = doc.IntAt("swathTiming/linesPerBurst"); err != nil {
		return err
	}
	if sw.SamplesPerBurst, err = doc.IntAt("swathTiming/samplesPerBurst"); err != nil {
		return err
	}

	if sw.RadarFrequency, err = doc.FloatAt("generalAnnotation/productInformation/radarFrequency"); err != nil {
		return err
	}
	sw.Wavelength = SpeedOfLight / sw.RadarFrequency

	steerDeg, err := doc.FloatAt("generalAnnotation/productInformation/azimuthSteeringRate")
	if err != nil {
		return err
	}
	sw.AzimuthSteerRate = steerDeg * math.Pi / 180

	if sw.RangeSamplingRate, err = doc.FloatAt("generalAnnotation/productInformation/rangeSamplingRate"); err != nil {
		return err
	}
	sw.RangePixelSpacing = SpeedOfLight / (2 * sw.RangeSamplingRate)

	if sw.AzimuthTimeInterval, err = doc.FloatAt("imageAnnotation/imageInformation/azimuthTimeInterval"); err != nil {
		return err
	}
	if sw.SlantRangeTime, err = doc.FloatAt("imageAnnotation/imageInformation/slantRangeTime"); err != nil {
		return err
	}
	sw.StartingRange = sw.SlantRangeTime * SpeedOfLight / 2

	// Range processing parameters live under varying list wrappers, so they
	// are located by local name rather than full path.
	if sw.RangeBandwidth, err = firstFloat(doc, "processingBandwidth"); err != nil {
		return err
	}
	windowType, err := doc.FirstText("windowType")
	if err != nil {
		return err
	}
	sw.RangeWindowType = strings.ToLower(windowType)
	if sw.RangeWindowCoefficient, err = firstFloat(doc, "windowCoefficient"); err != nil {
		return err
	}

	downlink := doc.First("downlinkValues")
	if downlink == nil {
		return &MetadataError{Path: "downlinkValues"}
	}
	if sw.Rank, err = downlink.IntAt("rank"); err != nil {
		return err
	}
	if sw.PRFRawData, err = downlink.FloatAt("prf"); err != nil {
		return err
	}
	if sw.RangeChirpRate, err = downlink.FloatAt("txPulseRampRate"); err != nil {
		return err
	}

	if sw.AzimuthFMRates, err = parsePolynomials(doc, "azimuthFmRate", "azimuthFmRatePolynomial"); err != nil {
		return err
	}
	if sw.Dopplers, err = parsePolynomials(doc, "dcEstimate", "dataDcPolynomial"); err != nil {
		return err
	}

	if sw.Grid, err = parseGrid(doc); err != nil {
		return err
	}

	if sw.Bursts, err = parseBurstList(doc); err != nil {
		return err
	}
	sw.NBursts = len(sw.Bursts)
	if sw.NBursts != declared {
		return fmt.Errorf("burst list declares %d bursts but contains %d", declared, sw.NBursts)
	}

	return nil
}

// parsePolynomials extracts a (reference time, polynomial) table and returns
// it sorted by reference time.
func parsePolynomials(doc *Node, elementName, polyName string) ([]TimedPoly, error) {
	elements := doc.FindAll(elementName)
	if len(elements) == 0 {
		return nil, &MetadataError{Path: elementName}
	}

	polys := make([]TimedPoly, 0, len(elements))
	for _, el := range elements {
		refTime, err := el.TimeAt("azimuthTime")
		if err != nil {
			return nil, err
		}
		t0, err := el.FloatAt("t0")
		if err != nil {
			return nil, err
		}
		coeffText, err := el.TextAt(polyName)
		if err != nil {
			return nil, err
		}
		coeffs, err := parseFloats(coeffText)
		if err != nil {
			return nil, fmt.Errorf("element %s: %w", polyName, err)
		}
		polys = append(polys, TimedPoly{
			Time:   refTime,
			R0:     0.5 * SpeedOfLight * t0,
			Coeffs: coeffs,
		})
	}

	sort.Slice(polys, func(i, j int) bool { return polys[i].Time.Before(polys[j].Time) })
	return polys, nil
}

func parseGrid(doc *Node) ([]GridPoint, error) {
	points := doc.FindAll("geolocationGridPoint")
	if len(points) == 0 {
		return nil, &MetadataError{Path: "geolocationGridPoint"}
	}

	grid := make([]GridPoint, 0, len(points))
	for _, el := range points {
		line, err := el.FloatAt("line")
		if err != nil {
			return nil, err
		}
		pixel, err := el.FloatAt("pixel")
		if err != nil {
			return nil, err
		}
		lat, err := el.FloatAt("latitude")
		if err != nil {
			return nil, err
		}
		lon, err := el.FloatAt("longitude")
		if err != nil {
			return nil, err
		}
		height, err := el.FloatAt("height")
		if err != nil {
			return nil, err
		}
		grid = append(grid, GridPoint{
			Line:      int(line),
			Pixel:     int(pixel),
			Latitude:  lat,
			Longitude: lon,
			Height:    height,
		})
	}

	sort.Slice(grid, func(i, j int) bool {
		if grid[i].Line != grid[j].Line {
			return grid[i].Line < grid[j].Line
		}
		return grid[i].Pixel < grid[j].Pixel
	})
	return grid, nil
}

func parseBurstList(doc *Node) ([]BurstRecord, error) {
	list := doc.Find("swathTiming/burstList")
	if list == nil {
		return nil, &MetadataError{Path: "swathTiming/burstList"}
	}

	var records []BurstRecord
	for _, el := range list.Children {
		if el.Name != "burst" {
			continue
		}
		azTime, err := el.TimeAt("azimuthTime")
		if err != nil {
			return nil, err
		}
		sensing, err := el.TimeAt("sensingTime")
		if err != nil {
			// Older generations omit sensingTime; azimuth time stands in.
			sensing = azTime
		}
		anx, err := el.FloatAt("azimuthAnxTime")
		if err != nil {
			return nil, err
		}
		offsetText, err := el.TextAt("byteOffset")
		if err != nil {
			return nil, err
		}
		offset, err := strconv.ParseInt(offsetText, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("element byteOffset: invalid integer %q: %w", offsetText, err)
		}
		firstValid, err := parseIntList(el, "firstValidSample")
		if err != nil {
			return nil, err
		}
		lastValid, err := parseIntList(el, "lastValidSample")
		if err != nil {
			return nil, err
		}
		records = append(records, BurstRecord{
			AzimuthTime:       azTime,
			SensingTime:       sensing,
			AzimuthANX:        anx,
			ByteOffset:        offset,
			FirstValidSamples: firstValid,
			LastValidSamples:  lastValid,
		})
	}
	if len(records) == 0 {
		return nil, &MetadataError{Path: "swathTiming/burstList/burst"}
	}
	return records, nil
}

// GridRow returns the grid points of the given line in pixel order.
func (sw *SwathContext) GridRow(line int) []GridPoint {
	var row []GridPoint
	for _, pt := range sw.Grid {
		if pt.Line == line {
			row = append(row, pt)
		}
	}
	return row
}

// NearestPoly returns the polynomial whose reference time is closest to t.
// The table is sorted, so the scan stops as soon as the distance grows.
func NearestPoly(polys []TimedPoly, t time.Time) (TimedPoly, error) {
	if len(polys) == 0 {
		return TimedPoly{}, fmt.Errorf("empty polynomial table")
	}

	best := polys[0]
	bestDist := absDuration(t.Sub(best.Time))
	for _, p := range polys[1:] {
		d := absDuration(t.Sub(p.Time))
		if d > bestDist {
			break
		}
		best, bestDist = p, d
	}
	return best, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func parseFloats(s string) ([]float64, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty numeric list")
	}
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q: %w", f, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseIntList(n *Node, path string) ([]int, error) {
	s, err := n.TextAt(path)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(s)
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("element %s: invalid integer %q: %w", path, f, err)
		}
		out[i] = v
	}
	return out, nil
}
