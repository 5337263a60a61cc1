// Package ticket mints and verifies the signed payload printed on event
// tickets. The payload is a compact HS256 JWT carrying the event, user and
// registration ids; the same string is encoded into a QR code for display.
package ticket

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/skip2/go-qrcode"
)

const (
	qrSize        = 256
	imagePrefix   = "data:image/png;base64,"
	headerKeyID   = "kid"
	signingMethod = "HS256"
)

// ErrInvalid wraps every verification failure.
var ErrInvalid = errors.New("invalid ticket")

// Claims is the canonical ticket payload.
type Claims struct {
	EventID        string `json:"eid"`
	UserID         string `json:"uid"`
	RegistrationID string `json:"rid"`
	IssuedAt       int64  `json:"iat"`
}

// GetExpirationTime and friends satisfy jwt.Claims. Tickets stay valid for as
// long as their registration does.
func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) { return nil, nil }
func (c Claims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c Claims) GetIssuer() (string, error)                    { return "", nil }
func (c Claims) GetSubject() (string, error)                   { return c.UserID, nil }
func (c Claims) GetAudience() (jwt.ClaimStrings, error)        { return nil, nil }
func (c Claims) GetIssuedAt() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.IssuedAt, 0)), nil
}

func (c Claims) validate() error {
	switch {
	case c.EventID == "":
		return errors.New("ticket claim eid is missing")
	case c.UserID == "":
		return errors.New("ticket claim uid is missing")
	case c.RegistrationID == "":
		return errors.New("ticket claim rid is missing")
	}
	return nil
}

type Issued struct {
	Payload string
	Image   string
}

type Issuer struct {
	keys *Keyring
}

func NewIssuer(keys *Keyring) *Issuer {
	return &Issuer{keys: keys}
}

// Issue signs the payload for a registration and renders it as a QR code.
func (i *Issuer) Issue(eventID, userID, registrationID string, issuedAt time.Time) (Issued, error) {
	claims := Claims{
		EventID:        eventID,
		UserID:         userID,
		RegistrationID: registrationID,
		IssuedAt:       issuedAt.Unix(),
	}
	if err := claims.validate(); err != nil {
		return Issued{}, err
	}

	keyID := i.keys.ActiveKeyID()
	key, err := i.keys.eventKey(keyID, eventID)
	if err != nil {
		return Issued{}, err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header[headerKeyID] = keyID
	payload, err := token.SignedString(key)
	if err != nil {
		return Issued{}, fmt.Errorf("token.SignedString -> %w", err)
	}

	png, err := qrcode.Encode(payload, qrcode.Medium, qrSize)
	if err != nil {
		return Issued{}, fmt.Errorf("qrcode.Encode -> %w", err)
	}

	return Issued{
		Payload: payload,
		Image:   imagePrefix + base64.StdEncoding.EncodeToString(png),
	}, nil
}

// Verify checks the signature before trusting any claim.
func (i *Issuer) Verify(payload string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(payload, &claims, func(t *jwt.Token) (interface{}, error) {
		keyID, _ := t.Header[headerKeyID].(string)
		c, ok := t.Claims.(*Claims)
		if !ok {
			return nil, ErrInvalid
		}
		return i.keys.eventKey(keyID, c.EventID)
	}, jwt.WithValidMethods([]string{signingMethod}))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := claims.validate(); err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return claims, nil
}
