package credential

import (
	"crypto/cipher"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey   = "k3y-for-tests-only-0123456789abc"
	testIVHex = "000102030405060708090a0b0c0d0e0f"

	// Получены openssl enc -aes-256-cbc с ключом testKey и IV testIVHex,
	// тем же способом, каким cookie шифрует система входа.
	aliceToken = testIVHex + ":f53c9510305cc6b4c9685f61a0d78fa0f71397ba043251d9b49b27ee25d92004fbefa61b440fc6060d017174d0f5182b2e3793db96a054f9115382a9e75152bcf0df931efa9acfc8a69501cc29955a5bf3401eb262cdd7ee9abf0d008010cc72"
	bobFalse   = testIVHex + ":83442989f363008a670bfa2848f44c3ed2b88a8392634d69faaacfd7ea91e093366a8c5f6a204f79e5c19cfda79ca5b268f3f87385623f4f248874e575c648344ae509d09b14fdd4e81e97fbf913e212"
	emptyUser  = testIVHex + ":f53c9510305cc6b4c9685f61a0d78fa01d2107d124f7dbf766271dc7727fa7c585cde443ddc115b55928c1b7f0fcc5aff29d877db8e9d2854aede9430c721cb9df805e9b11157bf49b7e7ba26d1cf2c1"
	notJSON    = testIVHex + ":a72aa85dba448d7e5c87d98d5a410682"
)

var alice = Claim{Username: "alice", DeviceName: "chrome-mac", IPAddress: "10.0.0.5", Auth: true}

func newTestCipher(t *testing.T) *Cipher {
	t.Helper()
	key, err := ParseKey(testKey)
	require.NoError(t, err)
	c, err := NewCipher(key)
	require.NoError(t, err)
	return c
}

func TestOpen_KnownToken(t *testing.T) {
	c := newTestCipher(t)
	claim, err := c.Open(aliceToken)
	require.NoError(t, err)
	assert.Equal(t, alice, claim)
}

func TestSeal_MatchesKnownToken(t *testing.T) {
	c := newTestCipher(t)
	iv, err := hex.DecodeString(testIVHex)
	require.NoError(t, err)

	tok, err := c.seal(alice, iv)
	require.NoError(t, err)
	assert.Equal(t, aliceToken, tok)
}

func TestSealOpen_RoundTrip(t *testing.T) {
	c := newTestCipher(t)
	claims := []Claim{
		alice,
		{Username: "bob", DeviceName: "firefox-linux", IPAddress: "192.168.1.20", Auth: true},
		{Username: "пользователь", DeviceName: "Safari \"iPad\"", IPAddress: "::1", Auth: true},
	}
	for _, want := range claims {
		tok, err := c.Seal(want)
		require.NoError(t, err)
		got, err := c.Open(tok)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestSeal_NonDeterministic(t *testing.T) {
	c := newTestCipher(t)
	a, err := c.Seal(alice)
	require.NoError(t, err)
	b, err := c.Seal(alice)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOpen_Rejects(t *testing.T) {
	c := newTestCipher(t)
	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"no separator", "deadbeef", ErrInvalidCredential},
		{"empty", "", ErrInvalidCredential},
		{"two separators", aliceToken + ":00", ErrInvalidCredential},
		{"non-hex iv", "zz" + aliceToken[2:], ErrInvalidCredential},
		{"short iv", aliceToken[2:], ErrInvalidCredential},
		{"empty ciphertext", testIVHex + ":", ErrInvalidCredential},
		{"ciphertext not block aligned", aliceToken[:len(aliceToken)-2], ErrInvalidCredential},
		{"plaintext not json", notJSON, ErrInvalidCredential},
		{"empty username", emptyUser, ErrInvalidCredential},
		{"auth false", bobFalse, ErrNotAuthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Open(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOpen_WrongKey(t *testing.T) {
	other, err := NewCipher([]byte(strings.Repeat("x", KeySize)))
	require.NoError(t, err)
	_, err = other.Open(aliceToken)
	assert.Error(t, err)
}

func TestOpen_SingleHexCorruptionFails(t *testing.T) {
	c := newTestCipher(t)
	for i := 0; i < len(aliceToken); i++ {
		if aliceToken[i] == ':' {
			continue
		}
		b := []byte(aliceToken)
		if b[i] == '0' {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
		_, err := c.Open(string(b))
		assert.Error(t, err, "corruption at %d accepted", i)
	}
}

func TestParseClaim_AuthFlag(t *testing.T) {
	w, err := parseClaim([]byte(`{"auth":true,"username":"a","deviceName":"d","ipAddress":"1"}`))
	require.NoError(t, err)
	assert.True(t, bool(w.Auth))

	w, err = parseClaim([]byte(`{"auth":"TRUE"}`))
	require.NoError(t, err)
	assert.False(t, bool(w.Auth))

	_, err = parseClaim([]byte(`{"auth":"true","username":42}`))
	assert.Error(t, err)
}

// sealPlain шифрует произвольный открытый текст тем же способом, что и Seal.
func sealPlain(t *testing.T, c *Cipher, plain string) string {
	t.Helper()
	iv, err := hex.DecodeString(testIVHex)
	require.NoError(t, err)
	p := pad([]byte(plain))
	ct := make([]byte, len(p))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(ct, p)
	return testIVHex + ":" + hex.EncodeToString(ct)
}

func TestOpen_KeysAreCaseSensitive(t *testing.T) {
	c := newTestCipher(t)

	tests := []struct {
		name  string
		plain string
		want  error
	}{
		{"all keys recased", `{"AUTH":"true","UserName":"alice","DEVICENAME":"d","IpAddress":"1.2.3.4"}`, ErrNotAuthenticated},
		{"auth exact, fields recased", `{"auth":"true","UserName":"alice","DEVICENAME":"d","IpAddress":"1.2.3.4"}`, ErrInvalidCredential},
		{"top-level array", `["auth","true"]`, ErrInvalidCredential},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Open(sealPlain(t, c, tt.plain))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	claim, err := c.Open(sealPlain(t, c, `{"auth":"true","username":"alice","deviceName":"d","ipAddress":"1.2.3.4"}`))
	require.NoError(t, err)
	assert.Equal(t, Claim{Username: "alice", DeviceName: "d", IPAddress: "1.2.3.4", Auth: true}, claim)
}

func TestParseKey(t *testing.T) {
	raw, err := ParseKey(testKey)
	require.NoError(t, err)
	assert.Len(t, raw, KeySize)

	fromHex, err := ParseKey(hex.EncodeToString([]byte(testKey)))
	require.NoError(t, err)
	assert.Equal(t, raw, fromHex)

	_, err = ParseKey("short")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = NewCipher([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestUnpad(t *testing.T) {
	_, ok := unpad([]byte{})
	assert.False(t, ok)
	_, ok = unpad([]byte{1, 2, 3, 0})
	assert.False(t, ok)
	_, ok = unpad([]byte{1, 2, 3, 2})
	assert.False(t, ok)
	out, ok := unpad([]byte{9, 2, 2})
	assert.True(t, ok)
	assert.Equal(t, []byte{9}, out)
}
