package model

const redacted = "[REDACTED]"

// UpstreamCredentials are the signed-access parameters for the overlay
// provider. They are loaded once at start-up and must never be logged, so
// every textual representation is redacted.
type UpstreamCredentials struct {
	KeyPairID string `env:"KEY_PAIR_ID,required"`
	Policy    string `env:"POLICY,required"`
	Signature string `env:"SIGNATURE,required"`
}

func (c UpstreamCredentials) Empty() bool {
	return c.KeyPairID == "" && c.Policy == "" && c.Signature == ""
}

func (c UpstreamCredentials) String() string {
	return redacted
}

func (c UpstreamCredentials) GoString() string {
	return redacted
}

func (c UpstreamCredentials) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}
