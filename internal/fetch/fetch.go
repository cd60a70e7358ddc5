// Package fetch resolves burst descriptors into raw sample data over the
// network: it loads product metadata, addresses bursts, and runs batched
// range reads under a bounded worker pool.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/rkm/s1burst/internal/burst"
	"github.com/rkm/s1burst/internal/decode"
	"github.com/rkm/s1burst/internal/metrics"
	"github.com/rkm/s1burst/internal/ranger"
	"github.com/rkm/s1burst/internal/safe"
	"github.com/rkm/s1burst/internal/zipfs"
)

// Descriptor is everything needed to retrieve one burst's raw samples. It is
// self-contained so catalog consumers can fetch without re-parsing the
// product's annotation.
type Descriptor struct {
	ID           string
	URL          string
	InteriorPath string
	ByteOffset   int64
	ByteLength   int64
	Lines        int
	Samples      int
}

// DescriptorFor derives a fetch descriptor from an addressed burst.
func DescriptorFor(b *burst.Burst) Descriptor {
	return Descriptor{
		ID:           b.ID,
		URL:          b.Swath.Product.SafeURL,
		InteriorPath: b.InteriorPath,
		ByteOffset:   b.ByteOffset,
		ByteLength:   b.ByteLength,
		Lines:        b.Lines,
		Samples:      b.Samples,
	}
}

// Fetcher retrieves burst content from remote SAFE archives.
type Fetcher struct {
	client  *ranger.Client
	logger  *slog.Logger
	collect *metrics.FetchCollector
}

// NewFetcher creates a Fetcher on top of a ranged-read client.
func NewFetcher(client *ranger.Client) *Fetcher {
	return &Fetcher{client: client, logger: slog.Default()}
}

// WithLogger sets a custom logger.
func (f *Fetcher) WithLogger(logger *slog.Logger) *Fetcher {
	f.logger = logger
	return f
}

// WithMetrics attaches a Prometheus collector.
func (f *Fetcher) WithMetrics(c *metrics.FetchCollector) *Fetcher {
	f.collect = c
	return f
}

// LoadProduct downloads and parses a product's manifest and all annotation
// documents. Manifest and annotations are small; they are read in full, not
// range-read.
func (f *Fetcher) LoadProduct(ctx context.Context, safeURL string) (*safe.Product, error) {
	safeName, err := safe.SafeNameFromURL(safeURL)
	if err != nil {
		return nil, err
	}

	archive, err := f.openArchive(ctx, safeURL)
	if err != nil {
		return nil, err
	}

	manifest, err := f.readXML(archive, path.Join(safeName, "manifest.safe"))
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", safeURL, err)
	}

	annotationPaths, err := archive.Glob(path.Join(safeName, "annotation", "s1*.xml"))
	if err != nil {
		return nil, err
	}
	if len(annotationPaths) == 0 {
		return nil, fmt.Errorf("product %s: no annotation documents in archive", safeURL)
	}

	annotations := make(map[string]*safe.Node, len(annotationPaths))
	for _, ap := range annotationPaths {
		doc, err := f.readXML(archive, ap)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", safeURL, err)
		}
		// Keyed by the path relative to the SAFE directory, matching the
		// manifest's fileLocation entries.
		rel := ap
		if prefix := safeName + "/"; len(ap) > len(prefix) && ap[:len(prefix)] == prefix {
			rel = ap[len(prefix):]
		}
		annotations[rel] = doc
	}

	return safe.NewProduct(safeURL, manifest, annotations)
}

// LoadBursts loads a product and addresses every burst of every
// polarization × sub-swath pair.
func (f *Fetcher) LoadBursts(ctx context.Context, safeURL string) ([]*burst.Burst, error) {
	product, err := f.LoadProduct(ctx, safeURL)
	if err != nil {
		return nil, err
	}

	var bursts []*burst.Burst
	for _, pol := range product.Polarizations {
		for swathIndex := 0; swathIndex < product.NSwaths; swathIndex++ {
			sw, err := safe.NewSwath(product, pol, swathIndex)
			if err != nil {
				return nil, err
			}
			addressed, err := burst.FromSwath(sw)
			if err != nil {
				return nil, err
			}
			bursts = append(bursts, addressed...)
		}
	}

	f.logger.InfoContext(ctx, "addressed product",
		slog.String("safe", product.SafeName),
		slog.Int("bursts", len(bursts)),
	)
	return bursts, nil
}

// FetchBytes retrieves the raw byte range of one burst.
func (f *Fetcher) FetchBytes(ctx context.Context, d Descriptor) ([]byte, error) {
	start := time.Now()

	archive, err := f.openArchive(ctx, d.URL)
	if err != nil {
		return nil, err
	}

	entry, err := archive.Entry(d.InteriorPath)
	if err != nil {
		return nil, err
	}
	if !entry.Stored() {
		f.logger.DebugContext(ctx, "measurement entry is compressed, seeking sequentially",
			slog.String("interior_path", d.InteriorPath),
		)
	}

	raw, err := entry.ReadRange(d.ByteOffset, d.ByteLength)
	if err != nil {
		return nil, fmt.Errorf("burst %s: %w", d.ID, err)
	}

	if f.collect != nil {
		f.collect.BytesTransferred.Add(float64(len(raw)))
		f.collect.FetchDuration.Observe(time.Since(start).Seconds())
	}
	f.logger.DebugContext(ctx, "fetched burst bytes",
		slog.String("burst", d.ID),
		slog.Int("bytes", len(raw)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return raw, nil
}

// Fetch retrieves and decodes one burst.
func (f *Fetcher) Fetch(ctx context.Context, d Descriptor) ([][]complex64, error) {
	raw, err := f.FetchBytes(ctx, d)
	if err != nil {
		return nil, err
	}
	return decode.Complex(raw, d.Lines, d.Samples)
}

// openArchive opens the remote container and parses its central directory.
// Each call opens an independent stream so concurrent fetches never share a
// read position.
func (f *Fetcher) openArchive(ctx context.Context, url string) (*zipfs.Archive, error) {
	reader, err := f.client.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	if !reader.SupportsRanges() && f.collect != nil {
		f.collect.RangeFallbacks.Inc()
	}
	return zipfs.Open(reader, reader.Size())
}

func (f *Fetcher) readXML(archive *zipfs.Archive, interiorPath string) (*safe.Node, error) {
	entry, err := archive.Entry(interiorPath)
	if err != nil {
		return nil, err
	}
	data, err := entry.ReadAll()
	if err != nil {
		return nil, err
	}
	doc, err := safe.ParseXML(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", interiorPath, err)
	}
	return doc, nil
}
