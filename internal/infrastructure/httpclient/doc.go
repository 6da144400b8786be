// Package httpclient provides the outbound HTTP client used to fetch program catalogs.
//
// Built on go-resty/resty over a hashicorp/go-retryablehttp round tripper
// (pooled transport), with an x/time/rate limiter and a resilience.Breaker.
// Every request is attempted exactly once; 404 is reported as ErrNotFound and
// does not count toward opening the breaker.
//
// Example Usage:
//
//	client := httpclient.New(httpclient.DefaultConfig())
//	body, err := client.GetBytes(ctx, "https://catalogs.internal/concierge.json")
package httpclient
