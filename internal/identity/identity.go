package identity

import "github.com/google/uuid"

// Issuer hands out opaque, stable anonymous identifiers. Clients persist
// the id themselves; the server treats it as pure opaque identity with no
// credentials attached.
type Issuer struct{}

func NewIssuer() *Issuer {
	return &Issuer{}
}

// Issue returns a fresh anonymous user id.
func (i *Issuer) Issue() string {
	return uuid.NewString()
}
