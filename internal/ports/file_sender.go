package ports

import (
	"context"

	"github.com/bft-labs/dropship/internal/domain"
)

// FileSender transmits files to the receiver.
// A receiver status >= 400 is returned as a Response, not as an error.
// Transport failures return an error wrapping domain.ErrConnectionFailure.
type FileSender interface {
	// SendOne posts a single file as multipart field "file".
	SendOne(ctx context.Context, upload domain.Upload) (domain.Response, error)

	// SendBulk posts all files in one request, one "files" part per file.
	SendBulk(ctx context.Context, uploads []domain.Upload) (domain.Response, error)
}
