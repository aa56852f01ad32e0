package config

// Readiness lists which operations the configuration can serve.
type Readiness struct {
	Reads   bool     `json:"reads"`
	Writes  bool     `json:"writes"`
	Missing []string `json:"missing,omitempty"`
}

// Readiness reports unset values that disable reads or writes. It replaces
// warnings at load time with a result the caller decides how to surface.
func (c *Config) Readiness() Readiness {
	r := Readiness{Reads: true, Writes: true}

	if c.EASContract == "" {
		r.Reads = false
		r.Writes = false
		r.Missing = append(r.Missing, EnvEASContract)
	}
	if c.SchemaUID == "" {
		r.Writes = false
		r.Missing = append(r.Missing, EnvSchemaUID)
	}
	if c.Wallet.PrivateKey == "" && c.Wallet.KeystorePath == "" {
		r.Writes = false
		r.Missing = append(r.Missing, EnvPrivateKey+" or "+EnvKeystorePath)
	}
	return r
}
