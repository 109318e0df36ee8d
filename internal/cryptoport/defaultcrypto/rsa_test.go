package defaultcrypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRSA_EncryptDecryptRoundTrip(t *testing.T) {
	r := RSA{}
	pub, priv, err := r.GenerateKeyPair()
	require.NoError(t, err)

	plaintext := []byte("a 32-byte shamir key slice.....!")
	ct, err := r.Encrypt(pub, plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ct)

	pt, err := r.Decrypt(priv, ct)
	require.NoError(t, err)
	assert.Equal(t, plaintext, pt)
}

func TestRSA_Decrypt_WrongKeyFails(t *testing.T) {
	r := RSA{}
	pub, _, err := r.GenerateKeyPair()
	require.NoError(t, err)
	_, otherPriv, err := r.GenerateKeyPair()
	require.NoError(t, err)

	ct, err := r.Encrypt(pub, []byte("secret"))
	require.NoError(t, err)

	_, err = r.Decrypt(otherPriv, ct)
	assert.Error(t, err)
}

func TestRSA_Decrypt_MalformedKeyErrors(t *testing.T) {
	r := RSA{}
	_, err := r.Decrypt([]byte("not a key"), []byte("ct"))
	assert.Error(t, err)
}
