package config

import "log/slog"

const redacted = "[REDACTED]"

// Secret holds a sensitive string. It prints as [REDACTED] through fmt,
// slog and YAML so passwords and tokens never end up in logs.
type Secret string

// Expose returns the underlying value.
func (s Secret) Expose() string { return string(s) }

func (s Secret) String() string { return redacted }

// GoString keeps %#v redacted too.
func (s Secret) GoString() string { return redacted }

// LogValue implements slog.LogValuer.
func (s Secret) LogValue() slog.Value { return slog.StringValue(redacted) }

// MarshalYAML writes the real value: SaveConfig produces a usable file.
func (s Secret) MarshalYAML() (interface{}, error) { return string(s), nil }
