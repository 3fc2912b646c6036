// Package model defines the data structures shared by the crawler packages.
//
// The main types are:
//   - Target: a parsed domain input with its primary and fallback origins
//   - DomainRecord: the enrichment result written to the dataset
//   - EndpointSet: passkey enroll/manage URLs from the well-known document
//   - ResolvedIcon: the winning icon candidate with its decoded size
//   - Enrichment: the mutable per-domain state passed between pipeline steps
//
// DomainRecord values are serialized verbatim into the dataset consumed by the
// directory website, so their JSON field names are part of the external format.
package model
