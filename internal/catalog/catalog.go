// Package catalog renders addressed bursts as STAC objects: one Item per
// burst, one Collection per burst stack, and a root Catalog tying them
// together. Items carry the byte addressing needed to fetch the burst
// without re-reading the product annotation.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/planetlabs/go-stac"

	"github.com/rkm/s1burst/internal/burst"
)

// StacVersion is the STAC specification version stamped on every object.
const StacVersion = "1.0.0"

// Item converts one addressed burst to a STAC Item. The burst's byte
// addressing goes into the item properties so that a fetch descriptor can
// be rebuilt from the item alone.
func Item(b *burst.Burst) (*stac.Item, error) {
	if b.Footprint == nil {
		return nil, fmt.Errorf("burst %s has no footprint", b.ID)
	}

	sw := b.Swath
	p := sw.Product

	item := &stac.Item{
		Version:    StacVersion,
		Id:         b.ID,
		Collection: b.StackID,
		Properties: make(map[string]any),
		Assets:     make(map[string]*stac.Asset),
		Links:      make([]*stac.Link, 0),
	}

	item.Geometry = b.Footprint
	item.Bbox = b.BBox

	item.Properties["datetime"] = b.SensingStart.UTC().Format(time.RFC3339Nano)
	item.Properties["platform"] = strings.ToLower(p.Platform)
	item.Properties["constellation"] = "sentinel-1"
	item.Properties["instruments"] = []string{"c-sar"}

	item.Properties["sar:instrument_mode"] = sw.Mode
	item.Properties["sar:frequency_band"] = "C"
	item.Properties["sar:polarizations"] = []string{strings.ToUpper(sw.Polarization)}
	item.Properties["sar:product_type"] = "SLC-BURST"
	item.Properties["sar:center_frequency"] = sw.RadarFrequency / 1e9

	item.Properties["sat:orbit_state"] = p.OrbitDirection
	item.Properties["sat:relative_orbit"] = p.RelativeOrbit
	item.Properties["sat:absolute_orbit"] = p.AbsoluteOrbit

	item.Properties["s1:stack_id"] = b.StackID
	item.Properties["s1:relative_burst_id"] = b.RelativeID
	item.Properties["s1:burst_index"] = b.Index
	item.Properties["s1:swath"] = fmt.Sprintf("%s%d", sw.Mode, sw.SwathIndex+1)
	item.Properties["s1:interior_path"] = b.InteriorPath
	item.Properties["s1:byte_offset"] = b.ByteOffset
	item.Properties["s1:byte_length"] = b.ByteLength
	item.Properties["s1:lines"] = b.Lines
	item.Properties["s1:samples"] = b.Samples

	pol := strings.ToUpper(sw.Polarization)
	item.Assets[pol] = &stac.Asset{
		Href:  p.SafeURL,
		Title: fmt.Sprintf("%s burst data", pol),
		Type:  "application/zip",
		Roles: []string{"data"},
	}

	return item, nil
}

// Items converts a slice of bursts to STAC items in input order.
func Items(bursts []*burst.Burst) ([]*stac.Item, error) {
	items := make([]*stac.Item, 0, len(bursts))
	for _, b := range bursts {
		item, err := Item(b)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Stack is one burst stack: all items sharing a relative burst ID and
// sub-swath, across acquisitions.
type Stack struct {
	ID    string
	Items []*stac.Item
}

// Collection renders the stack as a STAC Collection whose extent is
// computed from the member items.
func (s *Stack) Collection() *stac.Collection {
	c := &stac.Collection{
		Version:     StacVersion,
		Id:          s.ID,
		Title:       fmt.Sprintf("Burst stack %s", s.ID),
		Description: fmt.Sprintf("All acquisitions of burst stack %s.", s.ID),
		License:     "proprietary",
		Links:       make([]*stac.Link, 0),
		Assets:      make(map[string]*stac.Asset),
		Summaries:   make(map[string]any),
	}

	c.Extent = &stac.Extent{
		Spatial:  &stac.SpatialExtent{Bbox: [][]float64{spatialExtent(s.Items)}},
		Temporal: &stac.TemporalExtent{Interval: [][]any{temporalExtent(s.Items)}},
	}

	if state := summaryValues(s.Items, "sat:orbit_state"); len(state) > 0 {
		c.Summaries["sat:orbit_state"] = state
	}
	if pols := summaryValues(s.Items, "sar:polarizations"); len(pols) > 0 {
		c.Summaries["sar:polarizations"] = pols
	}

	return c
}

// Build groups items by stack and returns the stacks sorted by ID.
func Build(items []*stac.Item) []*Stack {
	byID := make(map[string]*Stack)
	for _, item := range items {
		st, ok := byID[item.Collection]
		if !ok {
			st = &Stack{ID: item.Collection}
			byID[item.Collection] = st
		}
		st.Items = append(st.Items, item)
	}

	stacks := make([]*Stack, 0, len(byID))
	for _, st := range byID {
		sort.Slice(st.Items, func(i, j int) bool { return st.Items[i].Id < st.Items[j].Id })
		stacks = append(stacks, st)
	}
	sort.Slice(stacks, func(i, j int) bool { return stacks[i].ID < stacks[j].ID })
	return stacks
}

// spatialExtent returns the union bounding box of the items.
func spatialExtent(items []*stac.Item) []float64 {
	var bbox []float64
	for _, item := range items {
		if len(item.Bbox) != 4 {
			continue
		}
		if bbox == nil {
			bbox = append([]float64(nil), item.Bbox...)
			continue
		}
		if item.Bbox[0] < bbox[0] {
			bbox[0] = item.Bbox[0]
		}
		if item.Bbox[1] < bbox[1] {
			bbox[1] = item.Bbox[1]
		}
		if item.Bbox[2] > bbox[2] {
			bbox[2] = item.Bbox[2]
		}
		if item.Bbox[3] > bbox[3] {
			bbox[3] = item.Bbox[3]
		}
	}
	return bbox
}

// temporalExtent returns the [earliest, latest] datetime interval of the
// items as RFC3339 strings.
func temporalExtent(items []*stac.Item) []any {
	var first, last string
	for _, item := range items {
		dt, ok := item.Properties["datetime"].(string)
		if !ok || dt == "" {
			continue
		}
		if first == "" || dt < first {
			first = dt
		}
		if last == "" || dt > last {
			last = dt
		}
	}
	if first == "" {
		return []any{nil, nil}
	}
	return []any{first, last}
}

// summaryValues collects the distinct values of a string-valued property
// across the items, sorted. String-slice properties are flattened.
func summaryValues(items []*stac.Item, key string) []string {
	seen := make(map[string]bool)
	for _, item := range items {
		switch v := item.Properties[key].(type) {
		case string:
			seen[v] = true
		case []string:
			for _, s := range v {
				seen[s] = true
			}
		}
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
