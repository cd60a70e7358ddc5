package safe

import "fmt"

// MetadataError reports a required element or attribute missing from a
// product's XML metadata. Addressing cannot proceed on partial metadata, so
// callers treat it as fatal for the affected swath or product.
type MetadataError struct {
	Path string // slash-separated element path, e.g. "swathTiming/linesPerBurst"
	Attr string // attribute name, empty for element lookups
}

func (e *MetadataError) Error() string {
	if e.Attr != "" {
		return fmt.Sprintf("required attribute %q missing at %s", e.Attr, e.Path)
	}
	return fmt.Sprintf("required element missing: %s", e.Path)
}
