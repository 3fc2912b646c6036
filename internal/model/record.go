package model

// EndpointSet holds the passkey management URLs a site advertises in its
// /.well-known/passkey-endpoints document. Missing values are empty strings.
type EndpointSet struct {
	// Enroll is the URL where a user can create a passkey.
	Enroll string `json:"enroll"`

	// Manage is the URL where a user can manage existing passkeys.
	Manage string `json:"manage"`
}

// IsEmpty reports whether neither endpoint is set.
func (e EndpointSet) IsEmpty() bool {
	return e.Enroll == "" && e.Manage == ""
}

// DomainRecord is the enrichment result for one input domain.
// Every input domain produces exactly one record; fields that could not be
// extracted keep their zero value.
type DomainRecord struct {
	// Domain is the input entry exactly as read from the domain list.
	Domain string `json:"domain"`

	// Name is the text of the page's first <title> element.
	Name string `json:"name"`

	// Description is taken from the description or og:description meta tag.
	Description string `json:"description"`

	// Icon is the path of the saved icon relative to the public directory,
	// for example "icons/example.com.png".
	Icon string `json:"icon"`

	// Endpoints are the passkey well-known endpoints.
	Endpoints EndpointSet `json:"endpoints"`
}

// DefaultRecord returns the record used when a domain could not be enriched.
func DefaultRecord(domain string) DomainRecord {
	return DomainRecord{
		Domain:    domain,
		Endpoints: EndpointSet{},
	}
}

// IsDegraded reports whether the record carries no enrichment at all.
func (r DomainRecord) IsDegraded() bool {
	return r.Name == "" && r.Description == "" && r.Icon == "" && r.Endpoints.IsEmpty()
}
