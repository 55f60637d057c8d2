package logger

import "log/slog"

// Standard field keys. Use these consistently so log lines can be queried
// across the service, the CLI and the test harness.
const (
	// Tracing
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// HTTP
	KeyRequestID  = "request_id"
	KeyClientIP   = "client_ip"
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyRoute      = "route"
	KeyStatus     = "status"
	KeyBytes      = "bytes"
	KeyDurationMs = "duration_ms"
	KeyAddr       = "addr"

	// Storage
	KeyDatabase = "database"
	KeyCode     = "code" // SQLSTATE or HTTP status from an upstream
	KeyVersion  = "version"
	KeyDirty    = "dirty"

	// Subscribers
	KeySubscriberID = "subscriber_id"
	KeyRecipient    = "recipient"

	KeyError = "error"
)

// Err returns an error attribute. A nil error yields an empty attribute,
// which handlers drop.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Database returns a database-name attribute.
func Database(name string) slog.Attr {
	return slog.String(KeyDatabase, name)
}

// Code returns an error-code attribute.
func Code(code string) slog.Attr {
	return slog.String(KeyCode, code)
}

// SubscriberID returns a subscriber id attribute.
func SubscriberID(id string) slog.Attr {
	return slog.String(KeySubscriberID, id)
}

// DurationMs returns a duration attribute in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}
