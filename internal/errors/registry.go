package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Config Errors (E100-E199)
	// ============================================

	"E101": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "teamstore.json could not be read or parsed.",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid environment override",
		Detail:   "A TEAMSTORE_* environment variable could not be parsed.",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Configuration value out of range",
		Detail:   "A configuration field has a value that teamstore cannot use.",
	},

	// ============================================
	// Selection & Storage Errors (E200-E299)
	// ============================================

	"E201": {
		Category: CategorySelection,
		Message:  "Failed to read stored selection",
		Detail:   "The storage backend returned an error while the initial value was being loaded.",
	},
	"E202": {
		Category: CategorySelection,
		Message:  "Stored selection is malformed",
		Detail:   "The stored text is not valid JSON for the selection type. Strict mode refuses to fall back to the default value.",
	},
	"E203": {
		Category: CategorySelection,
		Message:  "Failed to persist selection",
		Detail:   "The new value is visible in memory but the storage write failed.",
	},
	"E204": {
		Category: CategorySelection,
		Message:  "Failed to encode selection",
		Detail:   "The value could not be serialized to JSON.",
	},
	"E210": {
		Category: CategoryStorage,
		Message:  "Unsupported storage scheme",
		Detail:   "The storage DSN uses a scheme teamstore does not know.",
	},
	"E211": {
		Category: CategoryStorage,
		Message:  "Failed to open storage",
		Detail:   "The storage backend could not be opened or initialized.",
	},
	"E212": {
		Category: CategoryStorage,
		Message:  "Storage is closed",
		Detail:   "An operation was attempted on a store after Close.",
	},

	// ============================================
	// Server & CLI Errors (E300-E399)
	// ============================================

	"E301": {
		Category: CategoryServer,
		Message:  "Invalid request body",
		Detail:   "The request body must be a single JSON value.",
	},
	"E302": {
		Category: CategoryServer,
		Message:  "WebSocket connection failed",
		Detail:   "The watch stream could not be established or was interrupted.",
	},
	"E303": {
		Category: CategoryServer,
		Message:  "Server failed",
		Detail:   "The HTTP server stopped with an error.",
	},
	"E310": {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
		Detail:   "The command was called with missing or malformed arguments.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
