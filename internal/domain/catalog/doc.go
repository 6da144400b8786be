/*
Package catalog fetches the program catalog a section shows in its console.

A catalog is requested fresh every time a console opens; nothing is cached.
Two fetchers exist:

  - HTTPFetcher requests {base}/{section}.json through the shared
    httpclient (one attempt, rate limited, behind a circuit breaker).
  - FileFetcher reads {dir}/{section}.json|.yaml|.yml for local runs and
    fixtures.

Every failure (transport, status, malformed document) is reported as
ErrCatalogUnavailable so callers can fall back to the terminal state with a
single errors.Is check.

Usage:

	fetcher := catalog.NewHTTPFetcher(client, "https://catalogs.internal", "", logger)
	doc, err := fetcher.Fetch(ctx, "concierge")
	if errors.Is(err, catalog.ErrCatalogUnavailable) {
		// show "coming soon"
	}
*/
package catalog
