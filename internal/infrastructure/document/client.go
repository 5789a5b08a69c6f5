package document

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/facture/backend/internal/domain/facture"
)

// maxResponseSize is the maximum allowed response size from the document API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// ErrDocumentUnavailable indicates the document API could not be reached
var ErrDocumentUnavailable = errors.New("document: api unavailable")

// ErrUploadFailed indicates the file upload was rejected
var ErrUploadFailed = errors.New("document: upload failed")

// ErrUpdateFailed indicates the facture record patch was rejected
var ErrUpdateFailed = errors.New("document: facture update failed")

// Config holds the document API connection settings
type Config struct {
	APIURL  string
	Token   string
	Folder  string
	Timeout time.Duration
}

// Client uploads generated PDFs and writes file references back onto
// facture records in the document API.
type Client struct {
	config     Config
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a document API client with the given configuration
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		now: time.Now,
	}
}

// UploadPDF sends the PDF at path to the document API files endpoint with
// descriptive metadata and returns the file reference assigned by the API.
func (c *Client) UploadPDF(ctx context.Context, path string, f *facture.Facture) (string, error) {
	pdf, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("document: failed to open pdf: %w", err)
	}
	defer pdf.Close()

	factureID := f.ID
	if factureID == "" {
		factureID = "unknown"
	}
	currentDate := c.now().Format("2006-01-02")

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fields := map[string]string{
		"collection":        "factures_pdf",
		"filename_download": fmt.Sprintf("facture_%s-%s.pdf", currentDate, factureID),
		"title":             fmt.Sprintf("Facture n°%s-%s", currentDate, factureID),
		"description":       fmt.Sprintf("PDF généré pour la facture n°%s-%s", currentDate, factureID),
		"facture_id":        factureID,
		"client_nom":        f.Client.DisplayName(),
		"date_generation":   c.now().Format(time.RFC3339),
		"folder":            c.config.Folder,
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return "", fmt.Errorf("document: failed to write form field: %w", err)
		}
	}

	part, err := writer.CreateFormFile("file", fmt.Sprintf("facture_%s.pdf", factureID))
	if err != nil {
		return "", fmt.Errorf("document: failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, pdf); err != nil {
		return "", fmt.Errorf("document: failed to read pdf: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("document: failed to finalize form: %w", err)
	}

	endpoint := strings.TrimRight(c.config.APIURL, "/") + "/files"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("document: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDocumentUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("document: failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%w: HTTP %d: %s", ErrUploadFailed, resp.StatusCode, string(body))
	}

	var envelope struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("document: failed to decode upload response: %w", err)
	}
	if envelope.Data.ID == "" {
		return "", fmt.Errorf("%w: response missing file id", ErrUploadFailed)
	}

	return envelope.Data.ID, nil
}

// UpdateFacture patches the facture record with the uploaded file reference
// and the computed amounts.
func (c *Client) UpdateFacture(ctx context.Context, factureID, fileRef string, amountGross, amountNet decimal.Decimal) error {
	// decimal.Decimal marshals as a quoted string by default; the API
	// expects plain JSON numbers for the amounts.
	payload := map[string]any{
		"fileRef":     fileRef,
		"amountGross": json.RawMessage(amountGross.String()),
		"amountNet":   json.RawMessage(amountNet.String()),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("document: failed to encode update: %w", err)
	}

	endpoint := strings.TrimRight(c.config.APIURL, "/") + "/items/Factures/" + factureID

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("document: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDocumentUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("document: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: HTTP %d: %s", ErrUpdateFailed, resp.StatusCode, string(respBody))
	}

	return nil
}
