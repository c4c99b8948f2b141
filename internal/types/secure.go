package types

const redactedPlaceholder = "***REDACTED***"

// SecretString keeps credentials out of logs and JSON config dumps. Call
// Unmask only where the plaintext is handed to a client or driver.
type SecretString string

// String implements fmt.Stringer with a placeholder.
func (s SecretString) String() string {
	return redactedPlaceholder
}

// GoString covers %#v.
func (s SecretString) GoString() string {
	return redactedPlaceholder
}

// MarshalJSON encodes the placeholder instead of the value.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redactedPlaceholder + `"`), nil
}

// Unmask returns the plaintext.
func (s SecretString) Unmask() string {
	return string(s)
}

// IsSet reports whether a value was configured.
func (s SecretString) IsSet() bool {
	return s != ""
}
