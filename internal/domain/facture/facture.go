package facture

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Status values used by the billing API. The set is open: unknown values are
// carried through untouched.
const (
	StatusAwaitingPayment = "A_PAYER"
	StatusUnknown         = "N/A"
)

// Client is the customer block embedded in a facture. All fields are optional
// at the boundary; the billing system owns the record.
type Client struct {
	ID        string `json:"id,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Location  string `json:"location,omitempty"`
	Title     string `json:"title,omitempty"`
}

// DisplayName returns the client's name for document metadata, falling back
// to the first name alone when the last name is absent.
func (c Client) DisplayName() string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		return c.FirstName
	}
	return name
}

// LineItem is one billable line of a facture. ComputedTotal is derived during
// rendering and is never trusted from the caller.
type LineItem struct {
	Description   string          `json:"description,omitempty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int64           `json:"quantity"`
	Fee           decimal.Decimal `json:"fee"`
	ComputedTotal decimal.Decimal `json:"computed_total"`
}

// Facture is one billable invoice as normalized from the billing API.
// AmountNet/AmountGross are populated by the billing system only after a
// successful generation and publish round-trip.
type Facture struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	DateIssued  string          `json:"date_issued,omitempty"`
	DateValid   string          `json:"date_valid,omitempty"`
	DateService string          `json:"date_service,omitempty"`
	Currency    string          `json:"currency,omitempty"`
	PaymentMode string          `json:"payment_mode,omitempty"`
	AmountNet   decimal.Decimal `json:"amount_net"`
	AmountGross decimal.Decimal `json:"amount_gross"`
	Client      Client          `json:"client"`
	LineItems   []LineItem      `json:"line_items"`
}

// flexID decodes a record identifier that the billing API emits either as a
// JSON number or as an opaque string.
type flexID string

func (id *flexID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = flexID(n.String())
	return nil
}

// rawFacture mirrors the billing API's loose JSON shape. Every field is
// optional; defaulting happens once here, at the parse boundary.
type rawFacture struct {
	ID          flexID     `json:"id"`
	Status      *string    `json:"status"`
	DateIssued  *string    `json:"dateIssued"`
	DateValid   *string    `json:"dateValid"`
	DateService *string    `json:"dateService"`
	Currency    *string    `json:"currency"`
	PaymentMode *string    `json:"paymentMode"`
	AmountNet   *float64   `json:"amountNet"`
	AmountGross *float64   `json:"amountGross"`
	Client      *rawClient `json:"client"`
	LineItems   []rawLine  `json:"lineItems"`
}

type rawClient struct {
	ID        flexID  `json:"id"`
	FirstName *string     `json:"first_name"`
	LastName  *string     `json:"last_name"`
	Email     *string     `json:"email"`
	Location  *string     `json:"location"`
	Title     *string     `json:"title"`
}

type rawLine struct {
	Description *string  `json:"description"`
	UnitPrice   *float64 `json:"unitPrice"`
	Quantity    *int64   `json:"quantity"`
	Fee         *float64 `json:"fee"`
}

// UnmarshalJSON decodes the billing API shape into the normalized Facture,
// applying defaults for absent fields exactly once.
func (f *Facture) UnmarshalJSON(data []byte) error {
	var raw rawFacture
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	f.ID = string(raw.ID)
	f.Status = strOrDefault(raw.Status, StatusUnknown)
	f.DateIssued = strOrDefault(raw.DateIssued, "")
	f.DateValid = strOrDefault(raw.DateValid, "")
	f.DateService = strOrDefault(raw.DateService, "")
	f.Currency = strOrDefault(raw.Currency, "")
	f.PaymentMode = strOrDefault(raw.PaymentMode, "")
	f.AmountNet = decimalOrZero(raw.AmountNet)
	f.AmountGross = decimalOrZero(raw.AmountGross)

	if raw.Client != nil {
		f.Client = Client{
			ID:        string(raw.Client.ID),
			FirstName: strOrDefault(raw.Client.FirstName, ""),
			LastName:  strOrDefault(raw.Client.LastName, ""),
			Email:     strOrDefault(raw.Client.Email, ""),
			Location:  strOrDefault(raw.Client.Location, ""),
			Title:     strOrDefault(raw.Client.Title, ""),
		}
	}

	f.LineItems = make([]LineItem, 0, len(raw.LineItems))
	for _, l := range raw.LineItems {
		f.LineItems = append(f.LineItems, LineItem{
			Description: strOrDefault(l.Description, ""),
			UnitPrice:   decimalOrZero(l.UnitPrice),
			Quantity:    intOrZero(l.Quantity),
			Fee:         decimalOrZero(l.Fee),
		})
	}

	return nil
}

func strOrDefault(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}

func decimalOrZero(f *float64) decimal.Decimal {
	if f == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*f)
}

func intOrZero(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}
