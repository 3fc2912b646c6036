// Package main provides the entry point for the passkeydir CLI.
//
// passkeydir crawls every domain of a passkey directory's domain list and
// writes the enriched dataset the website is built from: display name,
// description, best icon, and the passkey enroll/manage endpoints.
//
// Usage:
//
//	passkeydir --input compatible-domains.json --output public/domains.json
//	passkeydir history example.com
//
// See --help for all available options.
package main

func main() {
	Execute()
}
