package clob

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradekit/autobot/internal/domain"
)

func TestNewSessionAcceptsHexKeyWithAndWithoutPrefix(t *testing.T) {
	plain, err := NewSession("", testPrivateKey)
	require.NoError(t, err)
	prefixed, err := NewSession("", "0x"+testPrivateKey)
	require.NoError(t, err)

	assert.Equal(t, plain.Address(), prefixed.Address())
	// the canonical address for this well-known key
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", plain.Address())
}

func TestNewSessionRejectsBadKey(t *testing.T) {
	_, err := NewSession("", "not-a-key")
	assert.Error(t, err)
}

func TestDeriveCredentials(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/derive-api-key", r.URL.Path)
		got = r.Header.Clone()
		fmt.Fprint(w, `{"apiKey":"key-1","secret":"c2VjcmV0","passphrase":"pass-1"}`)
	}))
	defer srv.Close()

	s, err := NewSession(srv.URL, testPrivateKey)
	require.NoError(t, err)
	require.NoError(t, s.DeriveCredentials(context.Background()))

	assert.Equal(t, s.Address(), got.Get("POLY-ADDRESS"))
	assert.Equal(t, "0", got.Get("POLY-NONCE"))
	assert.NotEmpty(t, got.Get("POLY-TIMESTAMP"))

	sig := got.Get("POLY-SIGNATURE")
	require.True(t, len(sig) > 2 && sig[:2] == "0x")
	raw, err := hex.DecodeString(sig[2:])
	require.NoError(t, err)
	require.Len(t, raw, 65)
	assert.Contains(t, []byte{27, 28}, raw[64], "recovery id in Ethereum form")

	assert.Equal(t, "key-1", s.creds.APIKey)
	assert.Equal(t, "pass-1", s.creds.Passphrase)
}

func TestDeriveCredentialsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid signature"}`)
	}))
	defer srv.Close()

	s, err := NewSession(srv.URL, testPrivateKey)
	require.NoError(t, err)

	err = s.DeriveCredentials(context.Background())
	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
	assert.Contains(t, authErr.Body, "invalid signature")
}

func TestReauthenticateReplacesCredentials(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprintf(w, `{"apiKey":"key-%d","secret":"c2VjcmV0","passphrase":"pass"}`, calls)
	}))
	defer srv.Close()

	s, err := NewSession(srv.URL, testPrivateKey)
	require.NoError(t, err)
	require.NoError(t, s.DeriveCredentials(context.Background()))
	assert.Equal(t, "key-1", s.creds.APIKey)

	require.NoError(t, s.Reauthenticate(context.Background()))
	assert.Equal(t, "key-2", s.creds.APIKey)
	assert.Equal(t, 2, calls)
}

func TestSignClobAuthDeterministic(t *testing.T) {
	s, err := NewSession("", testPrivateKey)
	require.NoError(t, err)

	a, err := s.signClobAuth("1748800000", "0")
	require.NoError(t, err)
	b, err := s.signClobAuth("1748800000", "0")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := s.signClobAuth("1748800001", "0")
	require.NoError(t, err)
	assert.NotEqual(t, a, c, "timestamp is part of the signed payload")
}
