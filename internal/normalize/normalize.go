package normalize

import "credence/internal/credential"

// Manifest converts either raw manifest shape into the unified record. The
// function is total: a structurally present manifest with no extractable
// detail yields an empty record, not an error, because absence of detail is
// not absence of the credential.
func Manifest(raw credential.Raw) *credential.Manifest {
	switch raw.Kind {
	case credential.RawJSON:
		return fromStructured(raw.JSON)
	default:
		return fromText(raw.Text)
	}
}
