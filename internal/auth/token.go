package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	tagLength       = sha256.Size
	timestampLength = 8
	idLength        = 4

	// The signing key is stretched from the operator secret once per process.
	// The parameters are fixed for wire compatibility: empty salt, static
	// iteration count, 32-byte key.
	keyIterations = 10000
	keyLength     = 32
)

// SessionToken is the client-held, stateless credential: an issue timestamp
// with millisecond precision plus the ordered list of passphrase ids the
// session has successfully authenticated. It carries no identity beyond its
// contents and is immutable once verified except for AddAuthorization.
type SessionToken struct {
	IssuedAt      time.Time
	PassphraseIDs []int32
}

// AddAuthorization appends a freshly authenticated passphrase id.
func (t *SessionToken) AddAuthorization(id int32) {
	t.PassphraseIDs = append(t.PassphraseIDs, id)
}

// Holds reports whether the token contains the passphrase id.
func (t SessionToken) Holds(id int32) bool {
	for _, held := range t.PassphraseIDs {
		if held == id {
			return true
		}
	}
	return false
}

// TokenCodec signs and verifies session tokens. The wire format is
// base64_std( HMAC-SHA256[32] ‖ u64_LE(millis) ‖ (i32_LE(id))* ). Instances
// are safe for concurrent use.
type TokenCodec struct {
	key []byte
	now func() time.Time
}

// NewTokenCodec derives the signing key from the process-wide secret. The
// now function is injectable for tests; nil means time.Now.
func NewTokenCodec(secret string, now func() time.Time) *TokenCodec {
	if now == nil {
		now = time.Now
	}
	return &TokenCodec{
		key: pbkdf2.Key([]byte(secret), nil, keyIterations, keyLength, sha256.New),
		now: now,
	}
}

// NewSessionToken returns an empty token issued at the current instant.
func (c *TokenCodec) NewSessionToken() SessionToken {
	return SessionToken{IssuedAt: c.now().UTC().Truncate(time.Millisecond)}
}

// Sign serialises and authenticates the token. A zero IssuedAt is replaced
// with the current instant.
func (c *TokenCodec) Sign(token SessionToken) string {
	issued := token.IssuedAt
	if issued.IsZero() {
		issued = c.now()
	}

	message := make([]byte, timestampLength+idLength*len(token.PassphraseIDs))
	binary.LittleEndian.PutUint64(message, uint64(issued.UnixMilli()))
	for i, id := range token.PassphraseIDs {
		binary.LittleEndian.PutUint32(message[timestampLength+idLength*i:], uint32(id))
	}

	mac := hmac.New(sha256.New, c.key)
	mac.Write(message)
	return base64.StdEncoding.EncodeToString(append(mac.Sum(nil), message...))
}

// Verify decodes and authenticates a raw token string. All failures are
// reported as typed errors; malformed input never panics. A token older than
// maxAge, or one claiming to come from the future, is rejected as expired.
func (c *TokenCodec) Verify(raw string, maxAge time.Duration) (SessionToken, error) {
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return SessionToken{}, ErrInvalidEncoding
	}

	if len(data) < tagLength+timestampLength || (len(data)-tagLength-timestampLength)%idLength != 0 {
		return SessionToken{}, ErrInvalidStructure
	}

	tag, message := data[:tagLength], data[tagLength:]
	mac := hmac.New(sha256.New, c.key)
	mac.Write(message)
	if !hmac.Equal(tag, mac.Sum(nil)) {
		return SessionToken{}, ErrSignatureVerificationFailed
	}

	issued := time.UnixMilli(int64(binary.LittleEndian.Uint64(message))).UTC()
	now := c.now()
	if issued.After(now) || now.Sub(issued) > maxAge {
		return SessionToken{}, ErrExpiredToken
	}

	ids := make([]int32, 0, (len(message)-timestampLength)/idLength)
	for offset := timestampLength; offset < len(message); offset += idLength {
		ids = append(ids, int32(binary.LittleEndian.Uint32(message[offset:])))
	}

	return SessionToken{IssuedAt: issued, PassphraseIDs: ids}, nil
}
