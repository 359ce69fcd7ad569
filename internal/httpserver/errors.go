package httpserver

const (
	ErrInvalidJSON      = "invalid json"
	ErrMissingID        = "missing id"
	ErrDependency       = "dependency error"
	ErrCallNotFound     = "Call not found"
	ErrInvalidSignature = "invalid signature"
	ErrInitiateFailed   = "Failed to initiate call"
	ErrWebhookFailed    = "Failed to process webhook"
)
