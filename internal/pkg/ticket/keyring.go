package ticket

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

var (
	errNoKeys        = errors.New("ticket signing keys are required")
	errNoActiveKey   = errors.New("active ticket key id is required")
	errUnknownKeyID  = errors.New("ticket key id is unknown")
	errEventRequired = errors.New("event id is required")
)

// Keyring holds root signing keys by id. Tickets are signed with a key derived
// from the active root key and the event id, so a leaked event key cannot mint
// tickets for other events.
type Keyring struct {
	keys        map[string][]byte
	activeKeyID string
}

func NewKeyring(keys map[string][]byte, activeKeyID string) (*Keyring, error) {
	if len(keys) == 0 {
		return nil, errNoKeys
	}
	activeKeyID = strings.TrimSpace(activeKeyID)
	if activeKeyID == "" {
		return nil, errNoActiveKey
	}
	if _, ok := keys[activeKeyID]; !ok {
		return nil, fmt.Errorf("active key %q is not configured", activeKeyID)
	}
	for id, k := range keys {
		if len(k) < 32 {
			return nil, fmt.Errorf("ticket key %q must be at least 32 bytes", id)
		}
	}
	return &Keyring{keys: keys, activeKeyID: activeKeyID}, nil
}

func (k *Keyring) ActiveKeyID() string {
	return k.activeKeyID
}

func (k *Keyring) eventKey(keyID, eventID string) ([]byte, error) {
	root, ok := k.keys[keyID]
	if !ok {
		return nil, errUnknownKeyID
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, errEventRequired
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, root, nil, []byte("event-ticket:"+eventID)), key); err != nil {
		return nil, fmt.Errorf("derive event key: %w", err)
	}
	return key, nil
}
