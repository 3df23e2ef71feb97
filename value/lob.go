package value

// LOBReference is the opaque blob/clob handle described in §3.1: a
// provider tag, a 64-bit id, and an optional cryptographic reference tag
// binding the reference to the session that produced it (GLOSSARY
// "Reference tag").
type LOBReference struct {
	ProviderTag string
	ID          uint64
	RefTag      []byte
}

func (r LOBReference) IsZero() bool {
	return r.ProviderTag == "" && r.ID == 0 && len(r.RefTag) == 0
}
