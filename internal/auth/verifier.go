package auth

import "context"

// TokenVerifier is the backend call behind the Verifier.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) error
}

// AuthState is the verifier output.  Settled is false only when the check was
// abandoned because its context ended; callers then write nothing.
type AuthState struct {
	Authenticated bool
	Settled       bool
	Err           error
}

// Verifier re-validates the stored credential with the backend.
type Verifier struct {
	src TokenVerifier
}

func NewVerifier(src TokenVerifier) *Verifier { return &Verifier{src: src} }

// Verify reports whether token is still accepted.  Missing, rejected and
// unreachable are all the same outcome: not authenticated.  A missing token
// never reaches the network.
func (v *Verifier) Verify(ctx context.Context, token string) AuthState {
	if token == "" {
		return AuthState{Settled: true}
	}
	err := v.src.VerifyToken(ctx, token)
	if ctx.Err() != nil {
		return AuthState{}
	}
	return AuthState{Authenticated: err == nil, Settled: true, Err: err}
}
