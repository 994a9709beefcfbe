package services

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"tahuri-backend/models"
	"tahuri-backend/utils"
)

const festivalName = "Festival Tahuri"

// TicketPDF renders participant tickets on a single A5 page.
type TicketPDF struct {
	loc *time.Location
}

func NewTicketPDF(loc *time.Location) *TicketPDF {
	return &TicketPDF{loc: loc}
}

// Filename is the download name of reg's ticket.
func (t *TicketPDF) Filename(reg models.RegistrationDetail) string {
	return fmt.Sprintf("tiket-%s.pdf", strings.ToLower(reg.TicketNumber))
}

func (t *TicketPDF) Render(w io.Writer, reg models.RegistrationDetail) error {
	const op = "services.TicketPDF.Render"

	pdf := fpdf.New("P", "mm", "A5", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(festivalName+" - "+reg.TicketNumber, true)
	pdf.SetAuthor(festivalName, true)
	pdf.SetMargins(12, 12, 12)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	width := pageW - left - right

	// header band
	pdf.SetFillColor(122, 31, 43)
	pdf.Rect(0, 0, pageW, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY(left, 8)
	pdf.CellFormat(width, 8, tr(strings.ToUpper(festivalName)), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(width, 6, "E-Ticket Peserta", "", 1, "C", false, 0, "")

	pdf.SetTextColor(30, 30, 30)
	pdf.SetY(38)
	pdf.SetFont("Helvetica", "B", 15)
	pdf.MultiCell(width, 7, tr(reg.EventTitle), "", "L", false)
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(width, 6, tr("Kode: "+reg.EventCode), "", 1, "L", false, 0, "")
	pdf.CellFormat(width, 6, tr("Waktu: "+reg.EventStartsAt.In(t.loc).Format("02 Jan 2006 15:04 MST")), "", 1, "L", false, 0, "")
	if reg.EventLocation != "" {
		pdf.CellFormat(width, 6, tr("Lokasi: "+reg.EventLocation), "", 1, "L", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetDrawColor(200, 200, 200)
	y := pdf.GetY()
	pdf.Line(left, y, pageW-right, y)
	pdf.Ln(6)

	field := func(label, value string) {
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(110, 110, 110)
		pdf.CellFormat(width, 5, label, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(30, 30, 30)
		pdf.CellFormat(width, 7, tr(value), "", 1, "L", false, 0, "")
		pdf.Ln(1)
	}
	field("Nama Peserta", reg.Name)
	field("NIK", utils.MaskNIK(reg.NIK))
	if reg.Institution != "" {
		field("Instansi", reg.Institution)
	}
	field("Status", ticketStatus(reg))

	// ticket number box
	pdf.Ln(6)
	y = pdf.GetY()
	pdf.SetDrawColor(122, 31, 43)
	pdf.SetLineWidth(0.6)
	pdf.Rect(left, y, width, 24, "D")
	pdf.SetXY(left, y+3)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(width, 5, "Nomor Tiket", "", 1, "C", false, 0, "")
	pdf.SetFont("Courier", "B", 20)
	pdf.SetTextColor(122, 31, 43)
	pdf.CellFormat(width, 12, reg.TicketNumber, "", 1, "C", false, 0, "")

	_, pageH := pdf.GetPageSize()
	pdf.SetXY(left, pageH-20)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(110, 110, 110)
	pdf.MultiCell(width, 4, "Tunjukkan tiket ini beserta KTP kepada petugas saat registrasi ulang di lokasi acara.", "", "C", false)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func ticketStatus(reg models.RegistrationDetail) string {
	switch {
	case !reg.IsActive():
		return "Dibatalkan"
	case reg.IsCheckedIn():
		return "Sudah hadir"
	default:
		return "Terdaftar"
	}
}
