package iyzico

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// authScheme is the fixed token prefixing the Authorization header value.
const authScheme = "IYZWSv2"

// Signer builds the provider's per-request authentication header from the
// merchant key pair. The nonce source is injectable so tests can pin it.
type Signer struct {
	apiKey    string
	secretKey string
	nonceFunc func() string
}

// NewSigner returns a Signer for the given credentials.
func NewSigner(apiKey, secretKey string) *Signer {
	return &Signer{
		apiKey:    apiKey,
		secretKey: secretKey,
		nonceFunc: randomNonce,
	}
}

// Sign computes the Authorization header value and the nonce for a request.
//
// The signature input is nonce + uriPath + body with no separators. uriPath
// MUST be the path only: query parameters belong on the request URL, never
// in the signed string, or the provider rejects the call with an auth error.
// The nonce is returned separately because the provider requires it to also
// travel as its own header, identical to the one folded into the signature.
func (s *Signer) Sign(method, uriPath, body string) (authorization, nonce string) {
	_ = method // fixed by convention; not part of the signature base
	nonce = s.nonceFunc()

	mac := hmac.New(sha256.New, []byte(s.secretKey))
	mac.Write([]byte(nonce))
	mac.Write([]byte(uriPath))
	mac.Write([]byte(body))
	signature := hex.EncodeToString(mac.Sum(nil))

	payload := fmt.Sprintf("apiKey:%s&randomKey:%s&signature:%s", s.apiKey, nonce, signature)
	authorization = authScheme + " " + base64.StdEncoding.EncodeToString([]byte(payload))
	return authorization, nonce
}

// randomNonce returns 16 random bytes as 32 lowercase hex characters.
// Each request gets a fresh value; reuse is a replay the provider may reject.
func randomNonce() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the platform entropy source is broken;
		// there is no sane fallback for a replay nonce.
		panic(fmt.Sprintf("nonce generation failed: %v", err))
	}
	return hex.EncodeToString(b)
}
