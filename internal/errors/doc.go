// Package errors provides structured, actionable error messages for teamstore.
//
// Every error carries a code (e.g. "E203") that maps to a registered template
// with a category, a short message and a longer explanation. Errors wrap the
// underlying cause so errors.Is and errors.As keep working, and two errors
// with the same code match under errors.Is.
//
// # Error Categories
//
//   - config: teamstore.json or environment problems
//   - storage: the persistent key-value store could not be reached or used
//   - selection: the selected-team value could not be loaded or persisted
//   - server: HTTP and WebSocket surface errors
//   - cli: command-line usage errors
//
// # Usage
//
//	err := errors.New("E203").
//	    Wrap(writeErr).
//	    WithSuggestion("Check that the storage backend is writable")
//
//	fmt.Print(err.Format())
//	// ERROR E203: Failed to persist selection
//	//
//	//   Hint: Check that the storage backend is writable
//	//
//	//   Learn more: https://teamstore.dev/docs/errors/E203
package errors
