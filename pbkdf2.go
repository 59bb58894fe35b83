package pagefs

import (
	"crypto/hmac"
	"encoding/binary"
	"errors"
	"hash"
)

// HMACProvider supplies the keyed pseudorandom function used by PBKDF2.
//
// New returns a MAC keyed with key. The returned hash.Hash must behave like
// crypto/hmac: Reset restores the keyed state and Sum appends the tag.
type HMACProvider interface {
	// Size returns the tag size hLen in bytes
	Size() int

	// New returns a MAC keyed with key
	New(key []byte) (hash.Hash, error)
}

// hmacProvider implements HMACProvider with crypto/hmac
type hmacProvider struct {
	hash Hash
	fn   func() hash.Hash
}

// NewHMACProvider returns the crypto/hmac provider for h
func NewHMACProvider(h Hash) (HMACProvider, error) {
	fn := h.New()
	if fn == nil {
		return nil, NewValidationError("hash", h, "unsupported hash function")
	}
	return &hmacProvider{hash: h, fn: fn}, nil
}

func (p *hmacProvider) Size() int {
	return p.hash.Size()
}

func (p *hmacProvider) New(key []byte) (hash.Hash, error) {
	return hmac.New(p.fn, key), nil
}

func (p *hmacProvider) String() string {
	return "hmac-" + p.hash.String()
}

// PBKDF2 derives keyLen bytes from password and salt with HMAC over h as
// defined by RFC 8018 section 5.2.
func PBKDF2(h Hash, password, salt []byte, iterations, keyLen int) ([]byte, error) {
	prov, err := NewHMACProvider(h)
	if err != nil {
		return nil, err
	}
	return PBKDF2With(prov, password, salt, iterations, keyLen)
}

// PBKDF2With derives keyLen bytes using an arbitrary HMAC provider.
//
// Every block T_i is computed in full even when only a prefix of it is
// needed. Intermediate buffers are wiped before returning, on success and on
// failure. No partial output is returned on failure.
func PBKDF2With(prov HMACProvider, password, salt []byte, iterations, keyLen int) ([]byte, error) {
	if prov == nil {
		return nil, NewValidationError("provider", nil, "HMAC provider cannot be nil")
	}
	if err := ValidateIterations(iterations); err != nil {
		return nil, err
	}
	hLen := prov.Size()
	if err := ValidateKeyLength(keyLen, hLen); err != nil {
		return nil, err
	}
	if keyLen == 0 {
		return []byte{}, nil
	}

	prf, err := prov.New(password)
	if err != nil {
		return nil, NewHashError(providerName(prov), err)
	}

	numBlocks := (keyLen + hLen - 1) / hLen
	dk := make([]byte, 0, numBlocks*hLen)

	// salt || BE32(i)
	block := make([]byte, len(salt)+4)
	copy(block, salt)
	u := make([]byte, 0, hLen)
	t := make([]byte, hLen)
	defer func() {
		Wipe(block)
		Wipe(u[:cap(u)])
		Wipe(t)
		prf.Reset()
	}()

	for i := 1; i <= numBlocks; i++ {
		binary.BigEndian.PutUint32(block[len(salt):], uint32(i))

		u, err = mac(prf, u[:0], block)
		if err != nil {
			Wipe(dk[:cap(dk)])
			return nil, NewHashError(providerName(prov), err)
		}
		if len(u) != hLen {
			Wipe(dk[:cap(dk)])
			return nil, NewHashError(providerName(prov), errors.New("provider returned a tag of unexpected size"))
		}
		copy(t, u)

		for j := 2; j <= iterations; j++ {
			// u is both input and output; mac writes before it appends.
			u, err = mac(prf, u[:0], u)
			if err != nil {
				Wipe(dk[:cap(dk)])
				return nil, NewHashError(providerName(prov), err)
			}
			for k := range t {
				t[k] ^= u[k]
			}
		}

		dk = append(dk, t...)
	}

	// Bytes past keyLen belong to the last block and are cleared before the
	// slice is handed out.
	Wipe(dk[keyLen:])
	return dk[:keyLen:keyLen], nil
}

// mac computes prf(msg) and appends the tag to dst. msg may alias dst's
// backing array: it is fully written before Sum touches dst.
func mac(prf hash.Hash, dst, msg []byte) ([]byte, error) {
	prf.Reset()
	if _, err := prf.Write(msg); err != nil {
		return dst, err
	}
	return prf.Sum(dst), nil
}

func providerName(prov HMACProvider) string {
	if s, ok := prov.(interface{ String() string }); ok {
		return s.String()
	}
	return ""
}

// Wipe overwrites b with zeros.
func Wipe(b []byte) {
	clear(b)
}

// DerivedKeyRequest is a single transient derivation input. Password is
// zeroed by Derive once the key has been computed, so requests derived one
// by one must not share a Password buffer. DeriveAll copies passwords
// before wiping them and accepts shared buffers.
type DerivedKeyRequest struct {
	Hash       Hash
	Password   []byte
	Salt       []byte
	Iterations int
	KeyLength  int
}

// Derive runs PBKDF2 for the request and wipes r.Password afterwards, also
// when derivation fails.
func (r *DerivedKeyRequest) Derive() ([]byte, error) {
	defer Wipe(r.Password)
	return PBKDF2(r.Hash, r.Password, r.Salt, r.Iterations, r.KeyLength)
}
