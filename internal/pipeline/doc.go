// Package pipeline turns a list of domains into directory records.
//
// Each domain runs through a Pipeline of Steps sharing one
// model.Enrichment: fetch_page, parse_page, resolve_icon, and
// resolve_endpoints. Only fetch_page is critical; when neither the primary
// nor the www. origin answers, the Enricher returns the all-defaults record.
// Every other step degrades its own fields and lets the pipeline continue.
//
// BatchProcessor runs the Enricher over a whole domain list with bounded
// concurrency (sequential by default) and always returns exactly one record
// per input, in input order. Run adds loading the input file and writing
// the dataset.
package pipeline
