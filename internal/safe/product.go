// Package safe parses Sentinel-1 SAFE product metadata: the manifest and the
// per-swath annotation documents that locate every burst inside the archive.
package safe

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// SpeedOfLight in m/s, used to convert slant-range times to distances.
const SpeedOfLight = 299792458.0

var (
	measurementPattern = regexp.MustCompile(`^\./measurement/s1.*tiff$`)
	annotationPattern  = regexp.MustCompile(`^\./annotation/s1.*xml$`)
)

// Product holds the SLC-level metadata of one SAFE archive: its manifest
// values and the parsed annotation documents keyed by interior path.
// A Product is immutable after construction.
type Product struct {
	SafeURL  string
	SafeName string
	Platform string // "S1A" or "S1B"

	// FilePaths are all interior locations declared in the manifest.
	// MeasurementPaths and AnnotationPaths are the subsets matching the
	// measurement/annotation naming conventions, sorted lexicographically so
	// swath/polarization pairing is deterministic.
	FilePaths        []string
	MeasurementPaths []string
	AnnotationPaths  []string

	RelativeOrbit  int
	AbsoluteOrbit  int
	OrbitDirection string // "ascending" or "descending"
	StartANX       float64
	NSwaths        int
	Polarizations  []string

	// IW2MidRange is the slant range to the middle of the IW2 sub-swath,
	// shared by downstream processing of every burst in the product.
	IW2MidRange float64

	annotations map[string]*Node
}

// NewProduct builds a Product from a parsed manifest document and a map of
// annotation interior path to parsed annotation document.
func NewProduct(safeURL string, manifest *Node, annotations map[string]*Node) (*Product, error) {
	if manifest == nil {
		return nil, &MetadataError{Path: "manifest.safe"}
	}
	if len(annotations) == 0 {
		return nil, fmt.Errorf("product %s: no annotation documents", safeURL)
	}

	safeName, err := SafeNameFromURL(safeURL)
	if err != nil {
		return nil, err
	}

	p := &Product{
		SafeURL:     safeURL,
		SafeName:    safeName,
		Platform:    strings.ToUpper(safeName[:3]),
		annotations: annotations,
	}

	locations := manifest.FindAll("fileLocation")
	if len(locations) == 0 {
		return nil, &MetadataError{Path: "fileLocation"}
	}
	for _, loc := range locations {
		href, ok := loc.Attrs["href"]
		if !ok {
			return nil, &MetadataError{Path: "fileLocation", Attr: "href"}
		}
		p.FilePaths = append(p.FilePaths, href)
		if measurementPattern.MatchString(href) {
			p.MeasurementPaths = append(p.MeasurementPaths, strings.TrimPrefix(href, "./"))
		}
		if annotationPattern.MatchString(href) {
			p.AnnotationPaths = append(p.AnnotationPaths, strings.TrimPrefix(href, "./"))
		}
	}
	sort.Strings(p.MeasurementPaths)
	sort.Strings(p.AnnotationPaths)

	relOrbit, err := manifest.FirstText("relativeOrbitNumber")
	if err != nil {
		return nil, err
	}
	if p.RelativeOrbit, err = parseIntField("relativeOrbitNumber", relOrbit); err != nil {
		return nil, err
	}

	absOrbit, err := manifest.FirstText("orbitNumber")
	if err != nil {
		return nil, err
	}
	if p.AbsoluteOrbit, err = parseIntField("orbitNumber", absOrbit); err != nil {
		return nil, err
	}

	direction, err := manifest.FirstText("pass")
	if err != nil {
		return nil, err
	}
	p.OrbitDirection = strings.ToLower(direction)

	startANX, err := manifest.FirstText("startTimeANX")
	if err != nil {
		return nil, err
	}
	if p.StartANX, err = parseFloatField("startTimeANX", startANX); err != nil {
		return nil, err
	}

	p.NSwaths = len(manifest.FindAll("swath"))
	if p.NSwaths == 0 {
		return nil, &MetadataError{Path: "swath"}
	}

	p.Polarizations = polarizationsFromPaths(annotations)
	if len(p.Polarizations) == 0 {
		return nil, fmt.Errorf("product %s: no polarizations derivable from annotation paths", safeURL)
	}

	if p.IW2MidRange, err = iw2MidRange(annotations); err != nil {
		return nil, err
	}

	return p, nil
}

// Annotation returns the parsed annotation document stored at the given
// interior path, or nil if absent.
func (p *Product) Annotation(interiorPath string) *Node {
	return p.annotations[interiorPath]
}

// AnnotationKeys returns the interior paths of all annotation documents,
// sorted.
func (p *Product) AnnotationKeys() []string {
	keys := make([]string, 0, len(p.annotations))
	for k := range p.annotations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SafeNameFromURL derives the SAFE directory name from a product URL by
// swapping the .zip suffix for .SAFE.
func SafeNameFromURL(safeURL string) (string, error) {
	u, err := url.Parse(safeURL)
	if err != nil {
		return "", fmt.Errorf("invalid product URL %q: %w", safeURL, err)
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		return "", fmt.Errorf("product URL %q has no file component", safeURL)
	}
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base + ".SAFE", nil
}

// polarizationsFromPaths derives the distinct polarizations from annotation
// filenames, which follow s1a-iw1-slc-vv-....xml.
func polarizationsFromPaths(annotations map[string]*Node) []string {
	seen := make(map[string]struct{})
	for key := range annotations {
		parts := strings.Split(path.Base(key), "-")
		if len(parts) > 3 {
			seen[strings.ToLower(parts[3])] = struct{}{}
		}
	}
	pols := make([]string, 0, len(seen))
	for pol := range seen {
		pols = append(pols, pol)
	}
	sort.Strings(pols)
	return pols
}

// iw2MidRange computes the slant range to the middle of IW2 from any IW2
// annotation. Products without an IW2 sub-swath (EW mode) report zero.
func iw2MidRange(annotations map[string]*Node) (float64, error) {
	var iw2 *Node
	for key, doc := range annotations {
		if strings.Contains(key, "iw2") {
			iw2 = doc
			break
		}
	}
	if iw2 == nil {
		return 0, nil
	}

	slantRangeTime, err := firstFloat(iw2, "slantRangeTime")
	if err != nil {
		return 0, err
	}
	nSamples, err := firstFloat(iw2, "samplesPerBurst")
	if err != nil {
		return 0, err
	}
	samplingRate, err := firstFloat(iw2, "rangeSamplingRate")
	if err != nil {
		return 0, err
	}

	startingRange := slantRangeTime * SpeedOfLight / 2
	pixelSpacing := SpeedOfLight / (2 * samplingRate)
	return startingRange + 0.5*nSamples*pixelSpacing, nil
}

func firstFloat(n *Node, name string) (float64, error) {
	s, err := n.FirstText(name)
	if err != nil {
		return 0, err
	}
	return parseFloatField(name, s)
}

func parseIntField(name, s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("element %s: invalid integer %q: %w", name, s, err)
	}
	return v, nil
}

func parseFloatField(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("element %s: invalid float %q: %w", name, s, err)
	}
	return v, nil
}
