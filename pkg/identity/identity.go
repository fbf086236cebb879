// Package identity holds a peer's long-lived Ed25519 signing key and node
// id, and implements the sign/verify primitives that every chat frame
// passes through (spec.md §3, §4.1).
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/brackenforge/meshchat/pkg/constants"
)

// Identity is a peer's signing keypair. The node id is the raw 32-byte
// Ed25519 public key; it is the stable name of the peer for the lifetime
// of the process (spec.md §3).
type Identity struct {
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

// Generate creates a fresh identity from crypto/rand.
func Generate() (*Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate identity: %w", err)
	}
	return &Identity{PublicKey: pub, PrivateKey: priv}, nil
}

// FromSeed rebuilds an identity from a 32-byte Ed25519 seed, e.g. one
// loaded from config (spec.md §6, `iroh.secret_key`).
func FromSeed(seed []byte) (*Identity, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("identity: seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Identity{PublicKey: priv.Public().(ed25519.PublicKey), PrivateKey: priv}, nil
}

// Seed returns the 32-byte seed backing this identity's private key, for
// persistence.
func (id *Identity) Seed() []byte {
	return id.PrivateKey.Seed()
}

// NodeID returns the 32-byte node id (the Ed25519 public key).
func (id *Identity) NodeID() [constants.NodeIDSize]byte {
	var out [constants.NodeIDSize]byte
	copy(out[:], id.PublicKey)
	return out
}

// NodeIDHex is the lowercase hex textual form of the node id, used in logs
// and as the `::me` display fallback.
func (id *Identity) NodeIDHex() string {
	return hex.EncodeToString(id.PublicKey)
}

// Sign signs payload with the identity's private key.
func (id *Identity) Sign(payload []byte) []byte {
	return ed25519.Sign(id.PrivateKey, payload)
}

// Verify reports whether signature is a valid Ed25519 signature over
// payload under signer.
func Verify(signer ed25519.PublicKey, payload, signature []byte) bool {
	if len(signer) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(signer, payload, signature)
}

// ShortID renders an arbitrary node id as a short, human-pronounceable
// fallback name (spec.md §4.4's "short-form node id fallback"), using the
// same proquint-style consonant/vowel encoding the reference corpus uses
// for its honeytag scheme, applied to the first 4 bytes of the id.
func ShortID(nodeID [constants.NodeIDSize]byte) string {
	return encodeProquint(uint32(nodeID[0])<<24 | uint32(nodeID[1])<<16 | uint32(nodeID[2])<<8 | uint32(nodeID[3]))
}

const (
	proquintConsonants = "bdfghjklmnprstvz"
	proquintVowels     = "aiou"
)

// encodeProquint encodes a 32-bit value as two CVCVC proquints joined by
// '-', e.g. "lusab-babad".
func encodeProquint(value uint32) string {
	encodeHalf := func(v uint16) string {
		b := make([]byte, 5)
		b[0] = proquintConsonants[(v>>12)&0x0F]
		b[1] = proquintVowels[(v>>10)&0x03]
		b[2] = proquintConsonants[(v>>6)&0x0F]
		b[3] = proquintVowels[(v>>4)&0x03]
		b[4] = proquintConsonants[v&0x0F]
		return string(b)
	}
	return encodeHalf(uint16(value>>16)) + "-" + encodeHalf(uint16(value&0xFFFF))
}
