package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/types"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/shared/utils"
)

// DefaultURLTemplate is used when no template is configured
const DefaultURLTemplate = "{base}/{section}.json"

// Fetcher retrieves a section's program catalog
type Fetcher interface {
	Fetch(ctx context.Context, sectionID string) (*types.CatalogDocument, error)
}

// Getter is the subset of httpclient.Client the HTTP fetcher needs
type Getter interface {
	GetBytes(ctx context.Context, url string) ([]byte, error)
}

var _ Getter = (*httpclient.Client)(nil)

// HTTPFetcher fetches catalogs from a remote base URL
type HTTPFetcher struct {
	client   Getter
	base     string
	template string
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// NewHTTPFetcher creates a fetcher for base. An empty template means DefaultURLTemplate.
func NewHTTPFetcher(client Getter, base, template string, logger *zap.Logger) *HTTPFetcher {
	if template == "" {
		template = DefaultURLTemplate
	}
	return &HTTPFetcher{
		client:   client,
		base:     strings.TrimRight(base, "/"),
		template: template,
		logger:   logging.OrNop(logger),
	}
}

// WithMetrics adds metrics tracking to the fetcher
func (f *HTTPFetcher) WithMetrics(metrics *monitoring.Metrics) *HTTPFetcher {
	f.metrics = metrics
	return f
}

// URL returns the address the catalog for sectionID is requested from
func (f *HTTPFetcher) URL(sectionID string) string {
	return strings.NewReplacer(
		"{base}", f.base,
		"{section}", url.PathEscape(sectionID),
	).Replace(f.template)
}

// Fetch requests the catalog exactly once
func (f *HTTPFetcher) Fetch(ctx context.Context, sectionID string) (*types.CatalogDocument, error) {
	if err := checkSection(sectionID); err != nil {
		return nil, err
	}

	start := time.Now()
	target := f.URL(sectionID)

	body, err := f.client.GetBytes(ctx, target)
	if err != nil {
		f.metrics.RecordCatalogFetch("http", fetchStatus(err), time.Since(start))
		f.logger.Warn("catalog fetch failed",
			zap.String("section", sectionID),
			zap.String("url", target),
			zap.Error(err))
		return nil, fmt.Errorf("%w: section %s: %v", ErrCatalogUnavailable, sectionID, err)
	}

	doc, err := Decode(body)
	if err != nil {
		f.metrics.RecordCatalogFetch("http", "malformed", time.Since(start))
		f.logger.Warn("catalog rejected",
			zap.String("section", sectionID),
			zap.Error(err))
		return nil, fmt.Errorf("section %s: %w", sectionID, err)
	}

	f.metrics.RecordCatalogFetch("http", "ok", time.Since(start))
	f.logger.Debug("catalog fetched",
		zap.String("section", sectionID),
		zap.Int("groups", len(doc.ProgramGroups)))
	return doc, nil
}

// FileFetcher reads catalogs from a directory
type FileFetcher struct {
	dir     string
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewFileFetcher creates a fetcher reading {dir}/{section}.json|.yaml|.yml
func NewFileFetcher(dir string, logger *zap.Logger) *FileFetcher {
	return &FileFetcher{dir: dir, logger: logging.OrNop(logger)}
}

// WithMetrics adds metrics tracking to the fetcher
func (f *FileFetcher) WithMetrics(metrics *monitoring.Metrics) *FileFetcher {
	f.metrics = metrics
	return f
}

// Fetch reads the first existing catalog file for sectionID
func (f *FileFetcher) Fetch(ctx context.Context, sectionID string) (*types.CatalogDocument, error) {
	if err := checkSection(sectionID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	start := time.Now()
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		path := filepath.Join(f.dir, sectionID+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			f.metrics.RecordCatalogFetch("file", "error", time.Since(start))
			return nil, fmt.Errorf("%w: read %s: %v", ErrCatalogUnavailable, path, err)
		}

		var doc *types.CatalogDocument
		if ext == ".json" {
			doc, err = Decode(data)
		} else {
			doc, err = DecodeYAML(data)
		}
		if err != nil {
			f.metrics.RecordCatalogFetch("file", "malformed", time.Since(start))
			f.logger.Warn("catalog file rejected", zap.String("path", path), zap.Error(err))
			return nil, fmt.Errorf("section %s: %w", sectionID, err)
		}

		f.metrics.RecordCatalogFetch("file", "ok", time.Since(start))
		return doc, nil
	}

	f.metrics.RecordCatalogFetch("file", "not_found", time.Since(start))
	return nil, fmt.Errorf("%w: no catalog file for section %s in %s", ErrCatalogUnavailable, sectionID, f.dir)
}

func checkSection(sectionID string) error {
	if err := utils.ValidateID(sectionID, "section", true); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSection, err)
	}
	return nil
}

func fetchStatus(err error) string {
	switch {
	case errors.Is(err, httpclient.ErrNotFound):
		return "not_found"
	case errors.Is(err, httpclient.ErrUnexpectedStatus):
		return "bad_status"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}
