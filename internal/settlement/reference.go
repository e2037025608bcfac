package settlement

import "github.com/google/uuid"

// GenerateReference produces a globally unique transaction reference.
// A v4 UUID string is 36 characters, the provider's maximum reference
// length, and carries no PII.
func GenerateReference() string {
	return uuid.New().String()
}
