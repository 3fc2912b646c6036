// Package fetch is the crawler's outbound HTTP layer.
//
// A Client offers three kinds of request, each with its own redirect and
// status policy:
//   - FetchPage: page and well-known documents; no automatic redirects, a
//     single 301/302 is resolved against the request URL and re-issued once
//   - FetchAsset: icons and manifests; up to five redirects, 2xx or 403 accepted
//   - Probe: HEAD existence check for icons; only 200 counts as reachable
//
// Every request carries a browser-like header set and waits on a shared
// politeness limiter. Failures are reported as *TransportError.
package fetch
