package facture

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/facture/backend/internal/domain/facture"
	"github.com/facture/backend/internal/domain/shared"
	"github.com/facture/backend/internal/infrastructure/printing"
)

// RecordFetcher retrieves facture records from the billing API
type RecordFetcher interface {
	FetchFactures(ctx context.Context, id string) ([]facture.Facture, error)
}

// DocumentStore uploads PDFs and stamps file references back onto records
type DocumentStore interface {
	UploadPDF(ctx context.Context, path string, f *facture.Facture) (string, error)
	UpdateFacture(ctx context.Context, factureID, fileRef string, amountGross, amountNet decimal.Decimal) error
}

// Service drives facture PDF generation end to end: retrieve, render,
// upload, patch back, clean up.
type Service struct {
	fetcher   RecordFetcher
	store     DocumentStore
	engine    *printing.TemplateEngine
	renderer  printing.PDFRenderer
	artifacts *printing.ArtifactStore
	logger    *zap.Logger

	templateContent string
	logoDataURL     string
}

// NewService creates the facture service. The HTML template at templatePath
// must exist; a logo.png next to it is inlined as a base64 data URL, and its
// absence degrades to an empty image reference with a warning.
func NewService(
	templatePath string,
	fetcher RecordFetcher,
	store DocumentStore,
	engine *printing.TemplateEngine,
	renderer printing.PDFRenderer,
	artifacts *printing.ArtifactStore,
	logger *zap.Logger,
) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	content, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", templatePath, err)
	}

	logoDataURL := ""
	logoPath := filepath.Join(filepath.Dir(templatePath), "logo.png")
	if logoData, err := os.ReadFile(logoPath); err == nil {
		logoDataURL = "data:image/png;base64," + base64.StdEncoding.EncodeToString(logoData)
	} else {
		logger.Warn("logo file not found, rendering without logo",
			zap.String("path", logoPath))
	}

	return &Service{
		fetcher:         fetcher,
		store:           store,
		engine:          engine,
		renderer:        renderer,
		artifacts:       artifacts,
		logger:          logger,
		templateContent: string(content),
		logoDataURL:     logoDataURL,
	}, nil
}

// RetrieveFactures fetches facture records. With a non-empty id it fetches
// that single facture, otherwise every facture awaiting payment. Fetch
// failures are logged and surface as an empty result so batch callers can
// treat "nothing to do" and "could not ask" uniformly.
func (s *Service) RetrieveFactures(ctx context.Context, id string) []facture.Facture {
	factures, err := s.fetcher.FetchFactures(ctx, id)
	if err != nil {
		s.logger.Error("failed to retrieve factures",
			zap.String("id", id),
			zap.Error(err))
		return nil
	}
	s.logger.Info("factures retrieved", zap.Int("count", len(factures)))
	return factures
}

// FindFacture fetches a single facture by id
func (s *Service) FindFacture(ctx context.Context, id string) (*facture.Facture, error) {
	factures, err := s.fetcher.FetchFactures(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range factures {
		if factures[i].ID == id {
			return &factures[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

// GeneratePDF renders one facture to a scratch PDF file and returns its
// path along with the computed totals.
func (s *Service) GeneratePDF(ctx context.Context, f *facture.Facture) (*RenderedDocument, error) {
	s.logger.Info("generating PDF", zap.String("facture_id", f.ID))

	totals := facture.ComputeTotals(f.LineItems)

	data := map[string]interface{}{
		"CurrentDate":   time.Now().Format("2006-01-02"),
		"FactureNumber": f.ID,
		"Date":          facture.FormatDisplayDate(f.DateIssued),
		"DateValid":     facture.FormatDisplayDate(f.DateValid),
		"DateService":   facture.FormatDisplayDate(f.DateService),
		"Client":        f.Client,
		"Items":         f.LineItems,
		"Subtotal":      totals.Subtotal,
		"TPS":           totals.TPS,
		"TVQ":           totals.TVQ,
		"GrandTotal":    totals.GrandTotal,
		"Status":        f.Status,
		"Currency":      f.Currency,
		"LogoDataURL":   s.logoDataURL,
	}

	html, err := s.engine.RenderString("facture", s.templateContent, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render template for facture %s: %w", f.ID, err)
	}

	result, err := s.renderer.Render(ctx, &printing.RenderRequest{
		HTML:  html,
		Title: "Facture " + f.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render PDF for facture %s: %w", f.ID, err)
	}

	path, err := s.artifacts.Write(result.PDFData)
	if err != nil {
		return nil, fmt.Errorf("failed to store PDF for facture %s: %w", f.ID, err)
	}

	s.logger.Info("PDF generated",
		zap.String("facture_id", f.ID),
		zap.String("path", path),
		zap.String("subtotal", totals.Subtotal.String()),
		zap.String("grand_total", totals.GrandTotal.String()))

	return &RenderedDocument{
		Path:       path,
		Subtotal:   totals.Subtotal,
		TPS:        totals.TPS,
		TVQ:        totals.TVQ,
		GrandTotal: totals.GrandTotal,
	}, nil
}

// GenerateFromRequest renders a PDF from caller-supplied facture data
func (s *Service) GenerateFromRequest(ctx context.Context, req *GenerateRequest) (*RenderedDocument, error) {
	if req.FactureID == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "facture_id is required")
	}
	return s.GeneratePDF(ctx, req.toFacture())
}

// Publish uploads the rendered PDF and patches the facture record with the
// file reference and amounts. An upload without a successful patch-back is
// an incomplete operation and fails as a whole.
func (s *Service) Publish(ctx context.Context, doc *RenderedDocument, f *facture.Facture) error {
	fileRef, err := s.store.UploadPDF(ctx, doc.Path, f)
	if err != nil {
		s.logger.Error("failed to upload PDF",
			zap.String("facture_id", f.ID),
			zap.Error(err))
		return err
	}

	s.logger.Info("PDF uploaded",
		zap.String("facture_id", f.ID),
		zap.String("file_ref", fileRef))

	if err := s.store.UpdateFacture(ctx, f.ID, fileRef, doc.GrandTotal, doc.Subtotal); err != nil {
		s.logger.Error("failed to update facture with file reference",
			zap.String("facture_id", f.ID),
			zap.String("file_ref", fileRef),
			zap.Error(err))
		return err
	}

	return nil
}

// Cleanup removes the scratch PDF file for a rendered document
func (s *Service) Cleanup(doc *RenderedDocument) {
	if doc == nil {
		return
	}
	if err := s.artifacts.Remove(doc.Path); err != nil {
		s.logger.Warn("could not clean up temporary file",
			zap.String("path", doc.Path),
			zap.Error(err))
	}
}

// ProcessFactures runs the full pipeline for every matching facture. With a
// non-empty id only that facture is processed, otherwise every facture
// awaiting payment. Records are handled sequentially and one failure never
// stops the rest of the batch.
func (s *Service) ProcessFactures(ctx context.Context, id string) *ProcessingStats {
	stats := &ProcessingStats{}

	factures := s.RetrieveFactures(ctx, id)
	stats.TotalFactures = len(factures)

	if len(factures) == 0 {
		s.logger.Warn("no factures found to process")
		return stats
	}

	for i := range factures {
		f := &factures[i]

		doc, err := s.GeneratePDF(ctx, f)
		if err != nil {
			stats.Errors++
			s.logger.Error("failed to generate PDF",
				zap.String("facture_id", f.ID),
				zap.Error(err))
			continue
		}
		stats.SuccessfulPDFs++

		if err := s.Publish(ctx, doc, f); err != nil {
			stats.Errors++
		} else {
			stats.SuccessfulUploads++
			s.logger.Info("facture processed", zap.String("facture_id", f.ID))
		}

		s.Cleanup(doc)
	}

	s.logger.Info("processing completed",
		zap.Int("total_factures", stats.TotalFactures),
		zap.Int("successful_pdfs", stats.SuccessfulPDFs),
		zap.Int("successful_uploads", stats.SuccessfulUploads),
		zap.Int("errors", stats.Errors))

	return stats
}

// StatusReport lists the current factures awaiting payment
func (s *Service) StatusReport(ctx context.Context) (*StatusReport, error) {
	factures, err := s.fetcher.FetchFactures(ctx, "")
	if err != nil {
		return nil, err
	}

	rows := make([]FactureStatus, 0, len(factures))
	for _, f := range factures {
		rows = append(rows, FactureStatus{
			ID:          f.ID,
			Status:      f.Status,
			ClientName:  f.Client.DisplayName(),
			DateIssued:  f.DateIssued,
			DateService: f.DateService,
			AmountNet:   f.AmountNet,
			AmountGross: f.AmountGross,
		})
	}

	return &StatusReport{
		Factures:   rows,
		TotalCount: len(rows),
		Timestamp:  time.Now().Format(time.RFC3339),
	}, nil
}

// Statistics aggregates the current facture population by status and amount
func (s *Service) Statistics(ctx context.Context) (*Statistics, error) {
	factures, err := s.fetcher.FetchFactures(ctx, "")
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		TotalFactures:      len(factures),
		StatusDistribution: make(map[string]int),
		TotalAmountNet:     decimal.Zero,
		TotalAmountGross:   decimal.Zero,
		Timestamp:          time.Now().Format(time.RFC3339),
	}

	for _, f := range factures {
		status := f.Status
		if status == "" {
			status = facture.StatusUnknown
		}
		stats.StatusDistribution[status]++
		stats.TotalAmountNet = stats.TotalAmountNet.Add(f.AmountNet)
		stats.TotalAmountGross = stats.TotalAmountGross.Add(f.AmountGross)
	}

	return stats, nil
}

// IsNotFound reports whether err is the record-not-found condition
func IsNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
