package facture

import (
	"github.com/shopspring/decimal"

	"github.com/facture/backend/internal/domain/facture"
)

// ProcessingStats summarises one batch run
type ProcessingStats struct {
	TotalFactures     int `json:"total_factures"`
	SuccessfulPDFs    int `json:"successful_pdfs"`
	SuccessfulUploads int `json:"successful_uploads"`
	Errors            int `json:"errors"`
}

// GenerateRequest is the payload for generating a single facture PDF from
// caller-supplied data, without a billing API round trip.
type GenerateRequest struct {
	FactureID  string             `json:"facture_id"`
	Status     string             `json:"status"`
	DateIssued string             `json:"date_emission"`
	DateValid  string             `json:"date_validite"`
	Client     *facture.Client    `json:"client"`
	Items      []GenerateLineItem `json:"items"`
}

// GenerateLineItem is one line of a GenerateRequest
type GenerateLineItem struct {
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int64           `json:"quantity"`
	Fee         decimal.Decimal `json:"fee"`
}

// RenderedDocument is the result of generating one facture PDF
type RenderedDocument struct {
	Path       string
	Subtotal   decimal.Decimal
	TPS        decimal.Decimal
	TVQ        decimal.Decimal
	GrandTotal decimal.Decimal
}

// FactureStatus is one row of the status listing
type FactureStatus struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	ClientName  string          `json:"client_name"`
	DateIssued  string          `json:"date_emission"`
	DateService string          `json:"date_service"`
	AmountNet   decimal.Decimal `json:"amount_net"`
	AmountGross decimal.Decimal `json:"amount_gross"`
}

// StatusReport is the response for the status listing
type StatusReport struct {
	Factures   []FactureStatus `json:"factures"`
	TotalCount int             `json:"total_count"`
	Timestamp  string          `json:"timestamp"`
}

// Statistics aggregates the current facture population
type Statistics struct {
	TotalFactures      int             `json:"total_factures"`
	StatusDistribution map[string]int  `json:"status_distribution"`
	TotalAmountNet     decimal.Decimal `json:"total_amount_net"`
	TotalAmountGross   decimal.Decimal `json:"total_amount_gross"`
	Timestamp          string          `json:"timestamp"`
}

// toFacture converts a GenerateRequest into the domain model
func (r *GenerateRequest) toFacture() *facture.Facture {
	f := &facture.Facture{
		ID:         r.FactureID,
		Status:     r.Status,
		DateIssued: r.DateIssued,
		DateValid:  r.DateValid,
	}
	if f.Status == "" {
		f.Status = facture.StatusUnknown
	}
	if r.Client != nil {
		f.Client = *r.Client
	}
	f.LineItems = make([]facture.LineItem, 0, len(r.Items))
	for _, item := range r.Items {
		f.LineItems = append(f.LineItems, facture.LineItem{
			Description: item.Description,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			Fee:         item.Fee,
		})
	}
	return f
}
