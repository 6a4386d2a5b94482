package db

// StorageType is the key type an FT index covers (HASH or JSON).
type StorageType string

const (
	// StorageHash indexes Redis hashes.
	StorageHash StorageType = "HASH"
	// StorageJSON indexes JSON documents.
	StorageJSON StorageType = "JSON"
)

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
