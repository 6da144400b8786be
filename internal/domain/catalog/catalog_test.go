package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/httpclient"
)

const conciergeJSON = `{
	"title": "Concierge Programs",
	"program_groups": [
		{"name": "intake", "icon": "inbox", "programs": [
			{"id": "matter-intake", "name": "Matter Intake", "icon": "file"},
			{"id": "conflict-check", "name": "Conflict Check", "icon": "shield"}
		]},
		{"name": "billing", "icon": "coin", "programs": [
			{"id": "time-entry", "name": "Time Entry", "icon": "clock"}
		]}
	]
}`

func TestDecode(t *testing.T) {
	doc, err := Decode([]byte(conciergeJSON))
	require.NoError(t, err)

	assert.Equal(t, "Concierge Programs", doc.Title)
	require.Len(t, doc.ProgramGroups, 2)
	assert.Equal(t, "intake", doc.ProgramGroups[0].Name)
	assert.Len(t, doc.ProgramGroups[0].Programs, 2)

	group, ok := doc.Group("billing")
	require.True(t, ok)
	program, ok := group.Program("time-entry")
	require.True(t, ok)
	assert.Equal(t, "Time Entry", program.Name)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"title": `},
		{"missing title", `{"program_groups": []}`},
		{"duplicate group", `{"title":"t","program_groups":[{"name":"a"},{"name":"a"}]}`},
		{"empty group name", `{"title":"t","program_groups":[{"name":""}]}`},
		{"unsafe program id", `{"title":"t","program_groups":[{"name":"a","programs":[{"id":"../x"}]}]}`},
		{"duplicate program", `{"title":"t","program_groups":[{"name":"a","programs":[{"id":"x"},{"id":"x"}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.body))
			assert.ErrorIs(t, err, ErrCatalogUnavailable)
		})
	}
}

func TestHTTPFetcher(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/catalogs/concierge.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(conciergeJSON))
		case "/catalogs/broken.json":
			_, _ = w.Write([]byte(`not json`))
		case "/catalogs/down.json":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	fetcher := NewHTTPFetcher(httpclient.New(httpclient.DefaultConfig()), srv.URL+"/catalogs/", "", nil)
	ctx := context.Background()

	t.Run("url", func(t *testing.T) {
		assert.Equal(t, srv.URL+"/catalogs/concierge.json", fetcher.URL("concierge"))
	})

	t.Run("success", func(t *testing.T) {
		doc, err := fetcher.Fetch(ctx, "concierge")
		require.NoError(t, err)
		assert.Equal(t, "Concierge Programs", doc.Title)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := fetcher.Fetch(ctx, "operations")
		assert.ErrorIs(t, err, ErrCatalogUnavailable)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := fetcher.Fetch(ctx, "broken")
		assert.ErrorIs(t, err, ErrCatalogUnavailable)
	})

	t.Run("single attempt on server error", func(t *testing.T) {
		before := hits.Load()
		_, err := fetcher.Fetch(ctx, "down")
		assert.ErrorIs(t, err, ErrCatalogUnavailable)
		assert.Equal(t, before+1, hits.Load())
	})

	t.Run("empty section", func(t *testing.T) {
		before := hits.Load()
		_, err := fetcher.Fetch(ctx, "")
		assert.ErrorIs(t, err, ErrInvalidSection)
		assert.Equal(t, before, hits.Load(), "no request for an invalid section")
	})
}

func TestHTTPFetcherTemplate(t *testing.T) {
	fetcher := NewHTTPFetcher(nil, "https://cdn.example.com", "{base}/v2/{section}/catalog.json", nil)
	assert.Equal(t, "https://cdn.example.com/v2/billing/catalog.json", fetcher.URL("billing"))
}

func TestFileFetcher(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "concierge.json"), []byte(conciergeJSON), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "billing.yaml"), []byte(`
title: Billing Programs
program_groups:
  - name: ledger
    icon: book
    programs:
      - id: invoices
        name: Invoices
        icon: receipt
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`[`), 0o644))

	fetcher := NewFileFetcher(dir, nil)
	ctx := context.Background()

	doc, err := fetcher.Fetch(ctx, "concierge")
	require.NoError(t, err)
	assert.Len(t, doc.ProgramGroups, 2)

	doc, err = fetcher.Fetch(ctx, "billing")
	require.NoError(t, err)
	assert.Equal(t, "Billing Programs", doc.Title)
	assert.Equal(t, "invoices", doc.ProgramGroups[0].Programs[0].ID)

	_, err = fetcher.Fetch(ctx, "missing")
	assert.ErrorIs(t, err, ErrCatalogUnavailable)

	_, err = fetcher.Fetch(ctx, "broken")
	assert.ErrorIs(t, err, ErrCatalogUnavailable)

	_, err = fetcher.Fetch(ctx, "../etc")
	assert.ErrorIs(t, err, ErrInvalidSection)
}
