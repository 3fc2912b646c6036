package pipeline

import (
	"bytes"
	"encoding/json"
	"os"
)

// LoadDomains reads a JSON array of domain strings. Entries are returned
// verbatim, duplicates included. Any failure is a *FatalInputError.
func LoadDomains(path string) ([]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is provided by the user
	if err != nil {
		return nil, &FatalInputError{Path: path, Err: err}
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &FatalInputError{Path: path, Err: ErrNotArray}
	}

	var domains []string
	if err := json.Unmarshal(trimmed, &domains); err != nil {
		return nil, &FatalInputError{Path: path, Err: err}
	}
	return domains, nil
}
