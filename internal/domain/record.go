package domain

import "time"

// FileRecord represents one file that has been transmitted to the receiver.
// Two records describe the same file when either ContentHash or IdentityKey
// matches; the pair is never treated as a composite key.
type FileRecord struct {
	// ID identifies the record for rollback deletes
	ID string

	// Name is the file name at the time of sending
	Name string

	// Path is the filesystem path at the time of sending
	Path string

	// ContentHash is the hex digest of the file bytes
	ContentHash string

	// IdentityKey is the filesystem identity ("<dev>:<ino>"); empty when unavailable
	IdentityKey string

	// Size is the file length in bytes
	Size int64

	// SentAt is when the record was created
	SentAt time.Time
}

// LocalFile is a regular file read from the watched folder.
type LocalFile struct {
	Name        string
	Path        string
	Content     []byte
	IdentityKey string
}

// Size returns the number of bytes read.
func (f LocalFile) Size() int64 {
	return int64(len(f.Content))
}

// Upload converts the file into a transfer payload.
func (f LocalFile) Upload() Upload {
	return Upload{Name: f.Name, Content: f.Content}
}

// Upload is a single multipart file part sent to the receiver.
type Upload struct {
	Name    string
	Content []byte
}

// Response is the receiver's reply to a transfer request.
type Response struct {
	StatusCode int
	Body       string
}

// Rejected reports whether the receiver refused the request.
func (r Response) Rejected() bool {
	return r.StatusCode >= 400
}
