package trigger

import "crypto/subtle"

// VerifyWebhookSecret checks a caller-supplied secret against the trigger
// configuration. An empty configured secret accepts every caller; otherwise
// the comparison is constant time.
func VerifyWebhookSecret(configured, provided string) bool {
	if configured == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(provided)) == 1
}
