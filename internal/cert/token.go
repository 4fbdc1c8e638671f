package cert

import "crypto/rand"

// No 0/O or 1/I: these tokens are read aloud and typed by hand.
const tokenAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewVerificationID returns a short, human-shareable uppercase token.
func NewVerificationID() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand failure is not recoverable here
	}
	for i := range b {
		b[i] = tokenAlphabet[int(b[i])%len(tokenAlphabet)]
	}
	return string(b)
}
