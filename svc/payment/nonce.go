package payment

import (
	"errors"

	"github.com/dmitrymomot/membership/pkg/token"
	"github.com/dmitrymomot/membership/svc/membership"
)

// nonce is the signed payload sent with every checkout. It lets a notification for an
// unknown session be traced back to its user.
type nonce struct {
	UserID  string          `json:"uid"`
	Tier    membership.Tier `json:"tier"`
	Months  int             `json:"m,omitempty"`
	Ref     string          `json:"ref"`
	Expires int64           `json:"exp"`
}

var errNonceExpired = errors.New("nonce expired")

func (s *service) issueNonce(n nonce) (string, error) {
	return token.Generate(n, s.nonceKey)
}

// parseNonce verifies raw and checks its expiry against the service clock.
func (s *service) parseNonce(raw string) (nonce, error) {
	n, err := token.Parse[nonce](raw, s.nonceKey)
	if err != nil {
		return nonce{}, errors.Join(ErrInvalidNonce, err)
	}
	if n.UserID == "" {
		return nonce{}, ErrInvalidNonce
	}
	if n.Expires > 0 && s.now().Unix() > n.Expires {
		return nonce{}, errors.Join(ErrInvalidNonce, errNonceExpired)
	}
	return n, nil
}
