package backend

// Sealer transforms campaign bytes on their way to and from storage.
// encryption.Sealer implements it; Plaintext is the identity.
type Sealer interface {
	Seal(plain []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

// Plaintext stores documents as they are.
type Plaintext struct{}

var _ Sealer = Plaintext{}

func (Plaintext) Seal(plain []byte) ([]byte, error) { return plain, nil }
func (Plaintext) Open(sealed []byte) ([]byte, error) { return sealed, nil }
