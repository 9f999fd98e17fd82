package clob

// signer.go — request signer (L2 auth).
//
// Pure: no I/O, no session state. The HMAC covers the exact serialized
// body bytes sent on the wire, so the signer and the sender must agree on
// serialization — callers pass the final body string.

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"
)

// l2Headers computes the authenticated header set for one request.
// timestamp is unix seconds; the nonce is the current unix millisecond,
// used for uniqueness only — the exchange does not verify monotonicity.
func l2Headers(creds *Credentials, address, method, path, body string, now time.Time) (map[string]string, error) {
	if creds == nil {
		return nil, fmt.Errorf("clob: credentials not derived yet")
	}

	ts := strconv.FormatInt(now.Unix(), 10)

	secret, err := base64.URLEncoding.DecodeString(creds.Secret)
	if err != nil {
		return nil, fmt.Errorf("clob: decode secret: %w", err)
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(ts + method + path + body))
	sig := base64.URLEncoding.EncodeToString(mac.Sum(nil))

	return map[string]string{
		"POLY-ADDRESS":    address,
		"POLY-SIGNATURE":  sig,
		"POLY-TIMESTAMP":  ts,
		"POLY-NONCE":      strconv.FormatInt(now.UnixMilli(), 10),
		"POLY-API-KEY":    creds.APIKey,
		"POLY-PASSPHRASE": creds.Passphrase,
		"Content-Type":    "application/json",
	}, nil
}
