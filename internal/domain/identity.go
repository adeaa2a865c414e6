package domain

// IdentityKind discriminates the union carried by Identity.
type IdentityKind int

const (
	// IdentityAnonymous means no credential was supplied at all.
	IdentityAnonymous IdentityKind = iota
	// IdentityCustomer means a valid customer access token was presented.
	IdentityCustomer
	// IdentityGuest means a valid guest cart token was presented.
	IdentityGuest
)

// Identity is the resolved caller: exactly one of CustomerID or
// GuestToken is set depending on Kind.
type Identity struct {
	Kind       IdentityKind
	CustomerID string
	GuestToken string
}

func AnonymousIdentity() Identity {
	return Identity{Kind: IdentityAnonymous}
}

func CustomerIdentity(customerID string) Identity {
	return Identity{Kind: IdentityCustomer, CustomerID: customerID}
}

func GuestIdentity(token string) Identity {
	return Identity{Kind: IdentityGuest, GuestToken: token}
}

func (i Identity) IsAnonymous() bool { return i.Kind == IdentityAnonymous }
func (i Identity) IsCustomer() bool  { return i.Kind == IdentityCustomer }
func (i Identity) IsGuest() bool     { return i.Kind == IdentityGuest }
