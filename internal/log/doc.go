// Package log builds the crawler's slog logger.
//
// The SecureHandler wraps any slog.Handler and masks credentials before they
// are written:
//   - cookie, authorization, and token attributes
//   - credential headers inside logged http.Header or map[string]string values
//   - passwords and signed query parameters inside logged URLs
//
// Diagnostics are opt-in: NewLogger only emits Debug and Info records when the
// --debug flag is set.
//
//	logger := log.NewLogger(os.Stderr, debug)
//	logger.Debug("fetching icon", "url", iconURL)
package log
