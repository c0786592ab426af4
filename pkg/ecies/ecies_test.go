package ecies_test

import (
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/rss-client/pkg/ecies"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	pubBytes := priv.PubKey().SerializeUncompressed()

	plaintext := []byte("a refreshed 32-byte scalar share")
	msg, err := ecies.Encrypt(pubBytes, plaintext)
	require.NoError(t, err)

	assert.NotEmpty(t, msg.Ciphertext)
	assert.NotEmpty(t, msg.EphemPublicKey)
	assert.NotEmpty(t, msg.IV)
	assert.NotEmpty(t, msg.MAC)

	got, err := ecies.Decrypt(priv.Serialize(), msg)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestDecryptWrongKeyFails(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	other, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	msg, err := ecies.Encrypt(priv.PubKey().SerializeUncompressed(), []byte("secret"))
	require.NoError(t, err)

	_, err = ecies.Decrypt(other.Serialize(), msg)
	assert.ErrorIs(t, err, ecies.ErrDecrypt)
}

func TestTamperedCiphertextFails(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	msg, err := ecies.Encrypt(priv.PubKey().SerializeUncompressed(), []byte("secret share bytes"))
	require.NoError(t, err)

	tampered := msg
	// flip a byte in the ciphertext hex string without changing its length
	b := []byte(tampered.Ciphertext)
	if b[0] == '0' {
		b[0] = '1'
	} else {
		b[0] = '0'
	}
	tampered.Ciphertext = string(b)

	_, err = ecies.Decrypt(priv.Serialize(), tampered)
	assert.ErrorIs(t, err, ecies.ErrDecrypt)
}

func TestDecryptMalformedFields(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	_, err = ecies.Decrypt(priv.Serialize(), ecies.EncryptedMessage{
		Ciphertext:     "zz",
		EphemPublicKey: "zz",
		IV:             "zz",
		MAC:            "zz",
	})
	assert.ErrorIs(t, err, ecies.ErrDecrypt)
}
