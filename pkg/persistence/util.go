package persistence

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/chartrunner/chartrunner/pkg/value"
	"github.com/google/uuid"
)

// ValidateMachineID rejects empty identifiers and anything that could
// escape a key-value namespace (path separators, the backup-key
// delimiter). Grounded on leptos-state's
// persistence/manager::validate_machine_id.
func ValidateMachineID(id string) error {
	if id == "" {
		return value.NewError(value.CodeBuildError, "machine id must not be empty")
	}
	if strings.ContainsAny(id, "/\\\x00") {
		return value.NewError(value.CodeBuildError, "machine id must not contain path separators: "+id)
	}
	for _, r := range id {
		if unicode.IsSpace(r) {
			return value.NewError(value.CodeBuildError, "machine id must not contain whitespace: "+id)
		}
	}
	return nil
}

// SanitizeMachineID rewrites an arbitrary string into one that passes
// ValidateMachineID, replacing disallowed characters with "_".
func SanitizeMachineID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r == '/' || r == '\\' || r == 0:
			b.WriteRune('_')
		case unicode.IsSpace(r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" {
		out = "machine"
	}
	return out
}

// GenerateMachineID mints a fresh machine identifier.
func GenerateMachineID() string {
	return "m-" + uuid.New().String()
}

// Checksum computes a hex-encoded SHA-256 digest of data, used to detect
// a torn or corrupted persisted record. crypto/sha256 is used directly:
// none of the example repos pull in a third-party hashing library, and a
// content digest is exactly what the standard library's hash package is
// for.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
