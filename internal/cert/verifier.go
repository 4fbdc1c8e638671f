package cert

import "context"

// Verifier is the public, read-only lookup by verification id. No
// authentication: anyone holding a token may check it.
type Verifier struct {
	certs Store
}

func NewVerifier(certs Store) *Verifier { return &Verifier{certs: certs} }

func (v *Verifier) Verify(ctx context.Context, verificationID string) (Certificate, error) {
	return v.certs.Get(ctx, verificationID)
}
