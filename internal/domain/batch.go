package domain

// Batch is an aggregate of files sent together in bulk mode.
// It keeps the IDs of the records created tentatively for this batch, so the
// caller can compensate them if the request fails.
type Batch struct {
	// Uploads contains one part per file, in scan order
	Uploads []Upload

	// RecordIDs lists the records created for the uploads, in creation order
	RecordIDs []string

	// TotalBytes is the sum of all upload lengths
	TotalBytes int64
}

// NewBatch creates a new empty batch.
func NewBatch() *Batch {
	return &Batch{
		Uploads:   make([]Upload, 0),
		RecordIDs: make([]string, 0),
	}
}

// Add appends a file and the ID of its tentative record.
func (b *Batch) Add(upload Upload, recordID string) {
	b.Uploads = append(b.Uploads, upload)
	b.RecordIDs = append(b.RecordIDs, recordID)
	b.TotalBytes += int64(len(upload.Content))
}

// Size returns the number of files in the batch.
func (b *Batch) Size() int {
	return len(b.Uploads)
}

// Empty returns true if the batch has no files.
func (b *Batch) Empty() bool {
	return len(b.Uploads) == 0
}

// Compensations returns a copy of the record IDs to delete on failure.
func (b *Batch) Compensations() []string {
	return append([]string(nil), b.RecordIDs...)
}

// Reset clears the batch for reuse.
func (b *Batch) Reset() {
	b.Uploads = b.Uploads[:0]
	b.RecordIDs = b.RecordIDs[:0]
	b.TotalBytes = 0
}
