package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"
)

type pairingEntry struct {
	requestID string
	expiresAt time.Time
}

// PairingStore tracks pending six-digit pairing codes. Codes are single use
// and expire after the configured TTL.
type PairingStore struct {
	mu      sync.Mutex
	pending map[string]pairingEntry
	ttl     time.Duration
}

func NewPairingStore(ttl time.Duration) *PairingStore {
	return &PairingStore{
		pending: make(map[string]pairingEntry),
		ttl:     ttl,
	}
}

// StartCleanup sweeps expired codes periodically until the context ends.
func (store *PairingStore) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				store.sweep()
			case <-ctx.Done():
				store.mu.Lock()
				store.pending = make(map[string]pairingEntry)
				store.mu.Unlock()
				return
			}
		}
	}()
}

// Issue generates and stores a new pairing code.
func (store *PairingStore) Issue(requestID string) (string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for attempts := 0; attempts < 10; attempts++ {
		code, err := randomPairingCode()
		if err != nil {
			return "", err
		}
		if _, taken := store.pending[code]; taken {
			continue
		}
		store.pending[code] = pairingEntry{
			requestID: requestID,
			expiresAt: time.Now().Add(store.ttl),
		}
		return code, nil
	}

	return "", fmt.Errorf("unable to generate unique pairing code")
}

// Redeem consumes a code. The code is removed whether it was valid or
// expired; a second redemption always fails.
func (store *PairingStore) Redeem(code string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	entry, ok := store.pending[code]
	if !ok {
		return ErrPairingCodeInvalid
	}
	delete(store.pending, code)
	if time.Now().After(entry.expiresAt) {
		return ErrPairingCodeExpired
	}
	return nil
}

var (
	ErrPairingCodeInvalid = fmt.Errorf("pairing code invalid")
	ErrPairingCodeExpired = fmt.Errorf("pairing code expired")
)

func (store *PairingStore) sweep() {
	store.mu.Lock()
	defer store.mu.Unlock()

	now := time.Now()
	for code, entry := range store.pending {
		if now.After(entry.expiresAt) {
			delete(store.pending, code)
		}
	}
}

func randomPairingCode() (string, error) {
	max := big.NewInt(900000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", 100000+n.Int64()), nil
}
