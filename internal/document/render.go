package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/justibot/justibot/internal/errors"
	"github.com/justibot/justibot/internal/models"
)

// ErrRender means the document could not be produced or stored.
var ErrRender = errors.NewSentinel("render failed")

const contentType = "application/pdf"

var referencePattern = regexp.MustCompile(`^case_[0-9]+\.pdf$`)

// Reference returns the deterministic artifact name for a case.
func Reference(caseID int64) string {
	return fmt.Sprintf("case_%d.pdf", caseID)
}

// ValidReference reports whether ref has the form produced by Reference.
func ValidReference(ref string) bool {
	return referencePattern.MatchString(ref)
}

// Finalizer renders finalized cases to PDF and keeps them in a Store.
type Finalizer struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

func NewFinalizer(store Store, logger *slog.Logger) *Finalizer {
	return &Finalizer{store: store, logger: logger, now: time.Now}
}

// Render produces the document for c, which must carry generated text and an identity, and returns its reference.
// Rendering the same case again overwrites the previous artifact.
func (f *Finalizer) Render(ctx context.Context, c *models.Case) (string, error) {
	if c.GeneratedText == "" || c.Identity == nil {
		return "", errors.Wrap(ErrRender, "case lacks text or identity", slog.Int64("case_id", c.ID))
	}

	content, err := f.renderPDF(c)
	if err != nil {
		return "", errors.Wrap(errors.Join(ErrRender, err), "render pdf", slog.Int64("case_id", c.ID))
	}

	ref := Reference(c.ID)
	if err = f.store.Put(ctx, ref, content, contentType); err != nil {
		return "", errors.Wrap(errors.Join(ErrRender, err), "store document", slog.String("reference", ref))
	}

	f.logger.LogAttrs(ctx, slog.LevelInfo, "rendered document",
		slog.String("reference", ref), slog.Int("bytes", len(content)))
	return ref, nil
}

// Open returns the stored document for ref.
func (f *Finalizer) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if !ValidReference(ref) {
		return nil, errors.Wrap(ErrArtifactNotFound, "invalid reference", slog.String("reference", ref))
	}
	rc, err := f.store.Open(ctx, ref)
	if err != nil {
		return nil, errors.Wrap(err, "open document")
	}
	return rc, nil
}

var spanishMonths = [...]string{ //nolint:gochecknoglobals // read-only lookup table
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

func spanishDate(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), spanishMonths[t.Month()-1], t.Year())
}

func addressee(category models.Category) string {
	switch category {
	case models.CategoryHealthAccess:
		return "Señor\nJUEZ DE LA REPÚBLICA (REPARTO)\nE. S. D."
	case models.CategoryTrafficFine:
		return "Señores\nSECRETARÍA DE MOVILIDAD\nE. S. D."
	default:
		return "A quien corresponda"
	}
}

func (f *Finalizer) renderPDF(c *models.Case) ([]byte, error) {
	const (
		margin         = 25
		lineHeight     = 6
		titleHeight    = 10
		bodySize       = 11
		titleSize      = 14
		footerSize     = 8
		footerOffset   = -15
		signatureWidth = 70
	)
	now := f.now()
	title := c.Category.DocumentTitle()

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle(title, true)
	pdf.SetAuthor(c.Identity.Name, true)
	pdf.SetCreator("JustiBot", true)
	pdf.SetCreationDate(now)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(footerOffset)
		pdf.SetFont("Helvetica", "I", footerSize)
		pdf.CellFormat(0, titleHeight, fmt.Sprintf("%d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	// Core fonts are encoded in cp1252, which covers Spanish accents.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	pdf.SetFont("Helvetica", "", bodySize)
	pdf.CellFormat(0, lineHeight, tr(fmt.Sprintf("%s, %s", c.Identity.City, spanishDate(now))), "", 1, "R", false, 0, "")
	pdf.Ln(lineHeight)
	pdf.MultiCell(0, lineHeight, tr(addressee(c.Category)), "", "L", false)
	pdf.Ln(lineHeight)

	pdf.SetFont("Helvetica", "B", titleSize)
	pdf.CellFormat(0, titleHeight, tr(strings.ToUpper(title)), "", 1, "C", false, 0, "")
	pdf.Ln(lineHeight / 2)

	pdf.SetFont("Helvetica", "", bodySize)
	pdf.MultiCell(0, lineHeight, tr(fmt.Sprintf(
		"%s, mayor de edad, identificado(a) con cédula de ciudadanía No. %s, domiciliado(a) en %s, "+
			"respetuosamente presento la siguiente %s:",
		c.Identity.Name, c.Identity.NationalID, c.Identity.City, title)), "", "J", false)
	pdf.Ln(lineHeight)

	for _, paragraph := range strings.Split(c.GeneratedText, "\n") {
		if strings.TrimSpace(paragraph) == "" {
			pdf.Ln(lineHeight / 2)
			continue
		}
		pdf.MultiCell(0, lineHeight, tr(paragraph), "", "J", false)
	}

	pdf.Ln(lineHeight * 3)
	pdf.CellFormat(0, lineHeight, tr("Atentamente,"), "", 1, "L", false, 0, "")
	pdf.Ln(lineHeight * 2)
	pdf.CellFormat(signatureWidth, 0, "", "T", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", bodySize)
	pdf.CellFormat(0, lineHeight, tr(c.Identity.Name), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", bodySize)
	pdf.CellFormat(0, lineHeight, tr("C.C. "+c.Identity.NationalID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, lineHeight, tr(c.Identity.City), "", 1, "L", false, 0, "")
	if c.Identity.Email != "" {
		pdf.CellFormat(0, lineHeight, tr(c.Identity.Email), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "write pdf")
	}
	return buf.Bytes(), nil
}
