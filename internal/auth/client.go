package auth

import "crypto/subtle"

// ClientAuthenticator checks presented client credentials against the single
// statically configured caller identity.
type ClientAuthenticator struct {
	id     []byte
	secret []byte
}

// NewClientAuthenticator builds an authenticator for the configured client.
func NewClientAuthenticator(clientID, clientSecret string) *ClientAuthenticator {
	return &ClientAuthenticator{id: []byte(clientID), secret: []byte(clientSecret)}
}

// Verify compares the presented credentials in constant time. Both fields
// are always compared so the duration does not reveal which one mismatched.
func (a *ClientAuthenticator) Verify(clientID, clientSecret string) bool {
	idOK := subtle.ConstantTimeCompare(a.id, []byte(clientID)) == 1
	secretOK := subtle.ConstantTimeCompare(a.secret, []byte(clientSecret)) == 1
	return idOK && secretOK
}
