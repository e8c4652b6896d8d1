package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/internal/ports"
)

const (
	singleFileField = "file"
	bulkFileField   = "files"

	// maxResponseBody caps how much of the receiver's reply is kept for logging.
	maxResponseBody = 64 << 10
)

// Sender implements ports.FileSender using multipart/form-data POSTs.
type Sender struct {
	client     ports.HTTPClient
	receiveURL string
	logger     ports.Logger
}

// NewSender creates a sender posting to receiveURL.
func NewSender(client ports.HTTPClient, receiveURL string, logger ports.Logger) *Sender {
	return &Sender{
		client:     client,
		receiveURL: receiveURL,
		logger:     logger,
	}
}

// SendOne posts a single file under the "file" field.
func (s *Sender) SendOne(ctx context.Context, upload domain.Upload) (domain.Response, error) {
	return s.post(ctx, singleFileField, []domain.Upload{upload})
}

// SendBulk posts every file in one request, one "files" part per file.
func (s *Sender) SendBulk(ctx context.Context, uploads []domain.Upload) (domain.Response, error) {
	return s.post(ctx, bulkFileField, uploads)
}

func (s *Sender) post(ctx context.Context, field string, uploads []domain.Upload) (domain.Response, error) {
	body, contentType, err := buildMultipart(field, uploads)
	if err != nil {
		return domain.Response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.receiveURL, body)
	if err != nil {
		return domain.Response{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.Response{}, fmt.Errorf("%w: %v", domain.ErrConnectionFailure, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		// The status line arrived, so the receiver did answer.
		s.logger.Warn("failed to read receiver response",
			ports.Int("status", resp.StatusCode),
			ports.Err(err),
		)
	}

	s.logger.Debug("receiver replied",
		ports.String("field", field),
		ports.Int("parts", len(uploads)),
		ports.Int("status", resp.StatusCode),
	)

	return domain.Response{StatusCode: resp.StatusCode, Body: string(respBody)}, nil
}

// buildMultipart writes one file part per upload under the given field name.
func buildMultipart(field string, uploads []domain.Upload) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for _, u := range uploads {
		part, err := writer.CreateFormFile(field, filepath.Base(u.Name))
		if err != nil {
			return nil, "", fmt.Errorf("create %s part: %w", field, err)
		}
		if _, err := part.Write(u.Content); err != nil {
			return nil, "", fmt.Errorf("write %s part: %w", field, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize multipart: %w", err)
	}
	return &body, writer.FormDataContentType(), nil
}
