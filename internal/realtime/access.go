package realtime

import (
	"log"

	"golang.org/x/crypto/bcrypt"
)

// TokenStore looks up the tracking token issued for an order at creation
// time. Returns "" when none is stored.
type TokenStore interface {
	GetTrackingToken(orderID uint) (string, error)
}

// AccessPolicy gates room joins. Both checks degrade to open when their
// backing configuration is absent, which matches the original unauthenticated
// behavior.
type AccessPolicy struct {
	tokens       TokenStore
	adminKeyHash string
}

func NewAccessPolicy(tokens TokenStore, adminKeyHash string) *AccessPolicy {
	return &AccessPolicy{tokens: tokens, adminKeyHash: adminKeyHash}
}

// CanTrackOrder checks the caller-presented token against the one issued at
// order creation. An order with no stored token (expired or never issued) is
// open to track.
func (p *AccessPolicy) CanTrackOrder(orderID uint, token string) bool {
	if p.tokens == nil {
		return true
	}
	stored, err := p.tokens.GetTrackingToken(orderID)
	if err != nil {
		log.Printf("realtime: tracking token lookup failed for order %d: %v", orderID, err)
		return false
	}
	if stored == "" {
		return true
	}
	return token == stored
}

// CanJoinAdmin verifies the presented key against the configured bcrypt hash.
// No configured hash means no gate.
func (p *AccessPolicy) CanJoinAdmin(key string) bool {
	if p.adminKeyHash == "" {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(p.adminKeyHash), []byte(key)) == nil
}
