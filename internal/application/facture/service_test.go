package facture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/facture/backend/internal/domain/facture"
	"github.com/facture/backend/internal/infrastructure/printing"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchFactures(ctx context.Context, id string) ([]facture.Facture, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]facture.Facture), args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) UploadPDF(ctx context.Context, path string, f *facture.Facture) (string, error) {
	args := m.Called(ctx, path, f)
	return args.String(0), args.Error(1)
}

func (m *mockStore) UpdateFacture(ctx context.Context, factureID, fileRef string, amountGross, amountNet decimal.Decimal) error {
	args := m.Called(ctx, factureID, fileRef, amountGross, amountNet)
	return args.Error(0)
}

type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) Render(ctx context.Context, req *printing.RenderRequest) (*printing.RenderResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*printing.RenderResult), args.Error(1)
}

func (m *mockRenderer) Close() error {
	return nil
}

const testTemplate = `<html><body>Facture {{ .FactureNumber }} total {{ formatMoney .GrandTotal }}</body></html>`

type serviceFixture struct {
	service    *Service
	fetcher    *mockFetcher
	store      *mockStore
	renderer   *mockRenderer
	scratchDir string
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	dir := t.TempDir()
	templatePath := filepath.Join(dir, "facture.html")
	require.NoError(t, os.WriteFile(templatePath, []byte(testTemplate), 0o644))

	scratchDir := t.TempDir()
	artifacts, err := printing.NewArtifactStore(scratchDir, nil)
	require.NoError(t, err)

	fetcher := new(mockFetcher)
	store := new(mockStore)
	renderer := new(mockRenderer)

	service, err := NewService(templatePath, fetcher, store,
		printing.NewTemplateEngine(), renderer, artifacts, nil)
	require.NoError(t, err)

	return &serviceFixture{
		service:    service,
		fetcher:    fetcher,
		store:      store,
		renderer:   renderer,
		scratchDir: scratchDir,
	}
}

func (fx *serviceFixture) expectRenderSuccess() {
	fx.renderer.On("Render", mock.Anything, mock.Anything).
		Return(&printing.RenderResult{PDFData: []byte("%PDF-1.4"), PageCount: 1}, nil)
}

func (fx *serviceFixture) scratchFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(fx.scratchDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func awaitingFacture(id string) facture.Facture {
	return facture.Facture{
		ID:     id,
		Status: facture.StatusAwaitingPayment,
		Client: facture.Client{FirstName: "Marie", LastName: "Tremblay"},
		LineItems: []facture.LineItem{
			{UnitPrice: decimal.NewFromInt(50), Quantity: 2},
		},
	}
}

func TestNewServiceMissingTemplate(t *testing.T) {
	artifacts, err := printing.NewArtifactStore(t.TempDir(), nil)
	require.NoError(t, err)

	_, err = NewService(filepath.Join(t.TempDir(), "missing.html"),
		new(mockFetcher), new(mockStore), printing.NewTemplateEngine(),
		new(mockRenderer), artifacts, nil)
	require.Error(t, err)
}

func TestNewServiceLoadsLogo(t *testing.T) {
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "facture.html")
	require.NoError(t, os.WriteFile(templatePath, []byte(testTemplate), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), []byte{0x89, 0x50, 0x4e, 0x47}, 0o644))

	artifacts, err := printing.NewArtifactStore(t.TempDir(), nil)
	require.NoError(t, err)

	service, err := NewService(templatePath, new(mockFetcher), new(mockStore),
		printing.NewTemplateEngine(), new(mockRenderer), artifacts, nil)
	require.NoError(t, err)

	assert.Contains(t, service.logoDataURL, "data:image/png;base64,")
}

func TestRetrieveFacturesErrorReturnsEmpty(t *testing.T) {
	fx := newServiceFixture(t)
	fx.fetcher.On("FetchFactures", mock.Anything, "").
		Return(nil, errors.New("connection refused"))

	factures := fx.service.RetrieveFactures(context.Background(), "")
	assert.Empty(t, factures)
}

func TestGeneratePDFWritesArtifact(t *testing.T) {
	fx := newServiceFixture(t)
	fx.expectRenderSuccess()

	f := awaitingFacture("7")
	doc, err := fx.service.GeneratePDF(context.Background(), &f)
	require.NoError(t, err)

	assert.FileExists(t, doc.Path)
	assert.True(t, doc.Subtotal.Equal(decimal.NewFromInt(100)))
	assert.True(t, doc.TPS.Equal(decimal.RequireFromString("5")))
	assert.True(t, doc.TVQ.Equal(decimal.RequireFromString("9.98")))
	assert.True(t, doc.GrandTotal.Equal(decimal.RequireFromString("114.98")))

	fx.service.Cleanup(doc)
	assert.NoFileExists(t, doc.Path)
}

func TestGeneratePDFTemplateCarriesDates(t *testing.T) {
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "facture.html")
	tpl := `<html><body>{{ .Date }} | {{ .DateValid }} | {{ .DateService }}</body></html>`
	require.NoError(t, os.WriteFile(templatePath, []byte(tpl), 0o644))

	artifacts, err := printing.NewArtifactStore(t.TempDir(), nil)
	require.NoError(t, err)

	renderer := new(mockRenderer)
	var gotHTML string
	renderer.On("Render", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			gotHTML = args.Get(1).(*printing.RenderRequest).HTML
		}).
		Return(&printing.RenderResult{PDFData: []byte("%PDF-1.4"), PageCount: 1}, nil)

	service, err := NewService(templatePath, new(mockFetcher), new(mockStore),
		printing.NewTemplateEngine(), renderer, artifacts, nil)
	require.NoError(t, err)

	f := awaitingFacture("7")
	f.DateIssued = "2025-08-23T12:00:00"
	f.DateValid = "2025-09-22"
	doc, err := service.GeneratePDF(context.Background(), &f)
	require.NoError(t, err)
	defer service.Cleanup(doc)

	assert.Contains(t, gotHTML, "23/08/2025 | 22/09/2025 | N/A")
}

func TestGeneratePDFRenderFailure(t *testing.T) {
	fx := newServiceFixture(t)
	fx.renderer.On("Render", mock.Anything, mock.Anything).
		Return(nil, printing.NewRenderError(printing.ErrCodeRenderFailed, "chrome crashed", nil))

	f := awaitingFacture("7")
	_, err := fx.service.GeneratePDF(context.Background(), &f)
	require.Error(t, err)
	assert.Empty(t, fx.scratchFiles(t))
}

func TestGenerateFromRequestRequiresID(t *testing.T) {
	fx := newServiceFixture(t)

	_, err := fx.service.GenerateFromRequest(context.Background(), &GenerateRequest{})
	require.Error(t, err)
}

func TestPublishUploadAndPatch(t *testing.T) {
	fx := newServiceFixture(t)
	f := awaitingFacture("7")
	doc := &RenderedDocument{
		Path:       "/tmp/x.pdf",
		Subtotal:   decimal.NewFromInt(100),
		GrandTotal: decimal.RequireFromString("114.98"),
	}

	fx.store.On("UploadPDF", mock.Anything, doc.Path, &f).Return("ref-1", nil)
	fx.store.On("UpdateFacture", mock.Anything, "7", "ref-1", doc.GrandTotal, doc.Subtotal).
		Return(nil)

	require.NoError(t, fx.service.Publish(context.Background(), doc, &f))
	fx.store.AssertExpectations(t)
}

func TestPublishFailsWhenPatchFails(t *testing.T) {
	fx := newServiceFixture(t)
	f := awaitingFacture("7")
	doc := &RenderedDocument{Path: "/tmp/x.pdf"}

	fx.store.On("UploadPDF", mock.Anything, doc.Path, &f).Return("ref-1", nil)
	fx.store.On("UpdateFacture", mock.Anything, "7", "ref-1", mock.Anything, mock.Anything).
		Return(errors.New("patch rejected"))

	err := fx.service.Publish(context.Background(), doc, &f)
	require.Error(t, err)
}

func TestProcessFacturesBatchIsolation(t *testing.T) {
	fx := newServiceFixture(t)
	fx.expectRenderSuccess()

	factures := []facture.Facture{
		awaitingFacture("1"),
		awaitingFacture("2"),
		awaitingFacture("3"),
	}
	fx.fetcher.On("FetchFactures", mock.Anything, "").Return(factures, nil)

	// Facture 2's upload fails; 1 and 3 still publish.
	fx.store.On("UploadPDF", mock.Anything, mock.Anything, mock.MatchedBy(func(f *facture.Facture) bool {
		return f.ID == "2"
	})).Return("", errors.New("upload rejected"))
	fx.store.On("UploadPDF", mock.Anything, mock.Anything, mock.Anything).Return("ref", nil)
	fx.store.On("UpdateFacture", mock.Anything, mock.Anything, "ref", mock.Anything, mock.Anything).
		Return(nil)

	stats := fx.service.ProcessFactures(context.Background(), "")

	assert.Equal(t, 3, stats.TotalFactures)
	assert.Equal(t, 3, stats.SuccessfulPDFs)
	assert.Equal(t, 2, stats.SuccessfulUploads)
	assert.Equal(t, 1, stats.Errors)

	// Scratch files are always cleaned up, success or failure.
	assert.Empty(t, fx.scratchFiles(t))
}

func TestProcessFacturesEmptyFetch(t *testing.T) {
	fx := newServiceFixture(t)
	fx.fetcher.On("FetchFactures", mock.Anything, "").
		Return([]facture.Facture{}, nil)

	stats := fx.service.ProcessFactures(context.Background(), "")

	assert.Equal(t, &ProcessingStats{}, stats)
}

func TestProcessFacturesFetchErrorCountsNothing(t *testing.T) {
	fx := newServiceFixture(t)
	fx.fetcher.On("FetchFactures", mock.Anything, "9").
		Return(nil, errors.New("api down"))

	stats := fx.service.ProcessFactures(context.Background(), "9")

	assert.Equal(t, 0, stats.TotalFactures)
	assert.Equal(t, 0, stats.Errors)
}

func TestFindFacture(t *testing.T) {
	fx := newServiceFixture(t)
	fx.fetcher.On("FetchFactures", mock.Anything, "7").
		Return([]facture.Facture{awaitingFacture("7")}, nil)

	f, err := fx.service.FindFacture(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "7", f.ID)
}

func TestFindFactureNotFound(t *testing.T) {
	fx := newServiceFixture(t)
	fx.fetcher.On("FetchFactures", mock.Anything, "99").
		Return([]facture.Facture{}, nil)

	_, err := fx.service.FindFacture(context.Background(), "99")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestStatusReport(t *testing.T) {
	fx := newServiceFixture(t)
	f := awaitingFacture("7")
	f.AmountNet = decimal.NewFromInt(100)
	f.AmountGross = decimal.RequireFromString("114.98")
	fx.fetcher.On("FetchFactures", mock.Anything, "").
		Return([]facture.Facture{f}, nil)

	report, err := fx.service.StatusReport(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.TotalCount)
	assert.Equal(t, "Marie Tremblay", report.Factures[0].ClientName)
	assert.NotEmpty(t, report.Timestamp)
}

func TestStatistics(t *testing.T) {
	fx := newServiceFixture(t)
	paid := awaitingFacture("8")
	paid.Status = "PAYEE"
	paid.AmountNet = decimal.NewFromInt(200)
	f := awaitingFacture("7")
	f.AmountNet = decimal.NewFromInt(100)

	fx.fetcher.On("FetchFactures", mock.Anything, "").
		Return([]facture.Facture{f, paid}, nil)

	stats, err := fx.service.Statistics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalFactures)
	assert.Equal(t, 1, stats.StatusDistribution[facture.StatusAwaitingPayment])
	assert.Equal(t, 1, stats.StatusDistribution["PAYEE"])
	assert.True(t, stats.TotalAmountNet.Equal(decimal.NewFromInt(300)))
}
