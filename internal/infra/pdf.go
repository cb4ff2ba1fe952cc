package infra

// pdf.go — Closing-report PDF generation using go-pdf/fpdf.
// One page per closed session: opening data, expected vs declared totals
// per conference step, difference and terminal status. Attached to the
// manager alert e-mail when the closing lands in audit_pending.

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Tchelovb/clinicpro-manager-sub008/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// ClosingReport carries the figures frozen at closing time.
type ClosingReport struct {
	Session         *model.CashSession
	ExpectedCash    decimal.Decimal
	ExpectedCardPix decimal.Decimal
}

// GenerateClosingPDF writes the closing report for a terminal session and
// returns the absolute path to the generated file.
func GenerateClosingPDF(rep ClosingReport, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	s := rep.Session
	fileName := fmt.Sprintf("fechamento_%s.pdf", s.ID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 24

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, "Fechamento de Caixa", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Sessão %s", s.ID), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	line := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(contentW*0.55, 6, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", style, 9)
		pdf.CellFormat(contentW*0.45, 6, value, "", 1, "R", false, 0, "")
	}
	money := func(d decimal.Decimal) string { return "R$ " + d.StringFixed(2) }

	line("Abertura", s.OpenedAt.Format("02/01/2006 15:04"), false)
	if s.ClosedAt != nil {
		line("Fechamento", s.ClosedAt.Format("02/01/2006 15:04"), false)
	}
	line("Saldo inicial", money(s.OpeningBalance), false)
	pdf.Ln(2)
	pdf.Line(12, pdf.GetY(), pageW-12, pdf.GetY())
	pdf.Ln(2)

	line("Dinheiro esperado", money(rep.ExpectedCash), false)
	if s.DeclaredBalance != nil {
		line("Dinheiro declarado", money(*s.DeclaredBalance), false)
	}
	line("Cartão/Pix esperado", money(rep.ExpectedCardPix), false)
	if s.DeclaredCardPix != nil {
		line("Cartão/Pix declarado", money(*s.DeclaredCardPix), false)
	}
	pdf.Ln(2)

	if s.DifferenceAmount != nil {
		line("Diferença", money(*s.DifferenceAmount), true)
	}
	line("Status", s.Status, true)
	if s.DifferenceReason != nil && *s.DifferenceReason != "" {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.MultiCell(contentW, 4, "Justificativa: "+*s.DifferenceReason, "", "L", false)
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write %s: %w", filePath, err)
	}
	return filePath, nil
}
