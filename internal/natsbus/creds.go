package natsbus

import (
	"errors"
	"fmt"

	"github.com/nats-io/jwt/v2"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nkeys"
)

var ErrInvalidCredentials = errors.New("natsbus: invalid user credentials")

// credentialOptions checks that the user JWT is well formed, unexpired and
// issued for the seed's public key before handing both to nats.go. Empty
// credentials connect anonymously.
func credentialOptions(userJWT, seed string) ([]nats.Option, error) {
	if userJWT == "" && seed == "" {
		return nil, nil
	}
	if userJWT == "" || seed == "" {
		return nil, fmt.Errorf("%w: jwt and seed must be set together", ErrInvalidCredentials)
	}

	claims, err := jwt.DecodeUserClaims(userJWT)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	vr := jwt.CreateValidationResults()
	claims.Validate(vr)
	if vr.IsBlocking(true) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, vr.Errors())
	}

	kp, err := nkeys.FromSeed([]byte(seed))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	pub, err := kp.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	if !nkeys.IsValidPublicUserKey(pub) {
		return nil, fmt.Errorf("%w: seed is not a user key", ErrInvalidCredentials)
	}
	if pub != claims.Subject {
		return nil, fmt.Errorf("%w: jwt subject does not match seed", ErrInvalidCredentials)
	}

	return []nats.Option{nats.UserJWTAndSeed(userJWT, seed)}, nil
}
