//go:build !unix

package fs

// IdentityOf always returns an empty key on this platform, so dedup
// falls back to content only.
func IdentityOf(path string) (string, error) {
	return "", nil
}
