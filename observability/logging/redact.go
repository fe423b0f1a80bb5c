package logging

import (
	"log/slog"
	"strings"
)

// RedactedValue replaces masked values in log lines.
const RedactedValue = "[REDACTED]"

// plainKeys are emitted verbatim. Anything else passed through MaskField,
// notably caller accounts and bearer tokens, is masked.
var plainKeys = map[string]struct{}{
	"service":    {},
	"env":        {},
	"error":      {},
	"operation":  {},
	"category":   {},
	"module":     {},
	"method":     {},
	"request_id": {},
	"addr":       {},
}

// secretKeys are masked wherever they appear, including attributes logged
// with plain slog helpers.
var secretKeys = map[string]struct{}{
	"token":         {},
	"authorization": {},
	"hmac_secret":   {},
	"secret":        {},
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// IsAllowlisted reports whether values logged under key are left unmasked.
func IsAllowlisted(key string) bool {
	_, ok := plainKeys[normalizeKey(key)]
	return ok
}

// MaskValue returns RedactedValue for non-empty values.
func MaskValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return value
	}
	return RedactedValue
}

// MaskField builds a string attribute, masking value unless key is allowlisted.
func MaskField(key, value string) slog.Attr {
	if IsAllowlisted(key) {
		return slog.String(key, value)
	}
	return slog.String(key, MaskValue(value))
}

// redactSecret masks string attributes whose key names a credential. It runs
// inside the handler so secrets never reach the sink.
func redactSecret(attr slog.Attr) slog.Attr {
	if _, ok := secretKeys[normalizeKey(attr.Key)]; !ok {
		return attr
	}
	if attr.Value.Kind() != slog.KindString {
		return attr
	}
	return slog.String(attr.Key, MaskValue(attr.Value.String()))
}
