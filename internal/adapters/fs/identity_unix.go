//go:build unix

package fs

import (
	"strconv"

	"golang.org/x/sys/unix"
)

// IdentityOf lstats path and returns "<dev>:<ino>".
// A rename within one filesystem keeps the key stable.
func IdentityOf(path string) (string, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return "", err
	}
	return strconv.FormatUint(uint64(st.Dev), 10) + ":" + strconv.FormatUint(uint64(st.Ino), 10), nil
}
