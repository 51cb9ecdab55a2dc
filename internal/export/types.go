// Package export renders the flagged-student leaderboard as PDF and XLSX files.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Format represents the export output format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "pdf", "xlsx" and the alias "excel".
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pdf":
		return FormatPDF, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
}

// Headers are the column titles, in order.
var Headers = []string{"Name", "Register No.", "Email", "Batch", "Total Reports"}

const (
	reportTitle = "P2P Flagged Students Report"
	sheetName   = "Flagged Students"
	missing     = "N/A"
)

// Row is one flagged student.
type Row struct {
	Name           string
	RegisterNumber string
	Email          string
	Batch          string
	TotalReports   int
}

// Cells returns the row in column order with blanks shown as N/A.
func (r Row) Cells() []interface{} {
	return []interface{}{r.Name, orMissing(r.RegisterNumber), r.Email, orMissing(r.Batch), r.TotalReports}
}

func orMissing(s string) string {
	if strings.TrimSpace(s) == "" {
		return missing
	}
	return s
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// Filename is P2P_Flagged_Students_YYYY-MM-DD.<ext>.
func Filename(now time.Time, f Format) string {
	return fmt.Sprintf("P2P_Flagged_Students_%s.%s", now.Format("2006-01-02"), f)
}

var (
	// ErrNoData indicates there is nothing to export.
	ErrNoData = errors.New("no data to export")
	// ErrUnknownFormat indicates an unsupported output format.
	ErrUnknownFormat = errors.New("unknown export format")
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
)
