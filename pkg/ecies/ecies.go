// Package ecies implements the hybrid encryption layer used to wrap scalar
// shares for transport: an ECIES-style scheme over secp256k1, used for every
// ciphertext in the RSS protocol regardless of which curve the TSS share
// itself lives on.
//
// The KDF reuses blake3.DeriveKey instead of a hand-rolled concat-KDF. The
// symmetric step is chacha20poly1305; its 16-byte Poly1305 tag is carried
// separately as the wire "mac" field so the four-field EncryptedMessage
// shape is preserved rather than collapsing into a single opaque blob.
package ecies

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/chacha20poly1305"
)

// kdfContext is the blake3 domain-separation context for deriving the AEAD
// key from an ECDH shared secret.
const kdfContext = "github.com/luxfi/rss-client ecies-v1 aead-key"

// ErrDecrypt is returned by Decrypt when a ciphertext cannot be decrypted:
// malformed hex fields, an invalid ephemeral public key, a wrong-length iv,
// or a MAC mismatch.
var ErrDecrypt = errors.New("ecies: decryption failed")

// EncryptedMessage is the wire representation of a hybrid-encrypted share:
// four independently hex-encoded fields.
type EncryptedMessage struct {
	Ciphertext     string `json:"ciphertext"`
	EphemPublicKey string `json:"ephemPublicKey"`
	IV             string `json:"iv"`
	MAC            string `json:"mac"`
}

// Encrypt encrypts plaintext to the secp256k1 public key given as an
// uncompressed 65-byte encoding (0x04 || x(32) || y(32)).
func Encrypt(pubBytes, plaintext []byte) (EncryptedMessage, error) {
	pub, err := secp256k1.ParsePubKey(pubBytes)
	if err != nil {
		return EncryptedMessage{}, fmt.Errorf("ecies: invalid public key: %w", err)
	}

	ephemPriv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return EncryptedMessage{}, fmt.Errorf("ecies: ephemeral key generation: %w", err)
	}

	shared := sharedSecret(ephemPriv, pub)
	key := deriveKey(shared)

	iv := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(iv); err != nil {
		return EncryptedMessage{}, fmt.Errorf("ecies: iv generation: %w", err)
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return EncryptedMessage{}, fmt.Errorf("ecies: aead setup: %w", err)
	}
	sealed := aead.Seal(nil, iv, plaintext, nil)
	ciphertext, mac := splitTag(sealed, aead.Overhead())

	return EncryptedMessage{
		Ciphertext:     hex.EncodeToString(ciphertext),
		EphemPublicKey: hex.EncodeToString(ephemPriv.PubKey().SerializeUncompressed()),
		IV:             hex.EncodeToString(iv),
		MAC:            hex.EncodeToString(mac),
	}, nil
}

// Decrypt decrypts msg using the secp256k1 private key given as a 32-byte
// big-endian scalar.
func Decrypt(privBytes []byte, msg EncryptedMessage) ([]byte, error) {
	priv := secp256k1.PrivKeyFromBytes(privBytes)

	ephemPubBytes, err := hex.DecodeString(msg.EphemPublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed ephemPublicKey: %v", ErrDecrypt, err)
	}
	ephemPub, err := secp256k1.ParsePubKey(ephemPubBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ephemPublicKey: %v", ErrDecrypt, err)
	}

	ciphertext, err := hex.DecodeString(msg.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed ciphertext: %v", ErrDecrypt, err)
	}
	iv, err := hex.DecodeString(msg.IV)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed iv: %v", ErrDecrypt, err)
	}
	mac, err := hex.DecodeString(msg.MAC)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed mac: %v", ErrDecrypt, err)
	}
	if len(iv) != chacha20poly1305.NonceSize {
		return nil, fmt.Errorf("%w: iv must be %d bytes", ErrDecrypt, chacha20poly1305.NonceSize)
	}

	shared := sharedSecret(priv, ephemPub)
	key := deriveKey(shared)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("ecies: aead setup: %w", err)
	}

	sealed := append(append([]byte{}, ciphertext...), mac...)
	plaintext, err := aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return plaintext, nil
}

// sharedSecret computes the ECDH shared x-coordinate between priv and pub.
func sharedSecret(priv *secp256k1.PrivateKey, pub *secp256k1.PublicKey) []byte {
	var sx, sy secp256k1.FieldVal
	sx.Set(&pub.X)
	sy.Set(&pub.Y)
	var jPub, jShared secp256k1.JacobianPoint
	jPub.X.Set(&sx)
	jPub.Y.Set(&sy)
	jPub.Z.SetInt(1)

	var scalar secp256k1.ModNScalar
	scalar.Set(&priv.Key)

	secp256k1.ScalarMultNonConst(&scalar, &jPub, &jShared)
	jShared.ToAffine()

	out := make([]byte, 32)
	jShared.X.PutBytesUnchecked(out)
	return out
}

func deriveKey(shared []byte) []byte {
	key := make([]byte, chacha20poly1305.KeySize)
	blake3.DeriveKey(kdfContext, shared, key)
	return key
}

func splitTag(sealed []byte, overhead int) (ciphertext, tag []byte) {
	n := len(sealed) - overhead
	return sealed[:n], sealed[n:]
}
