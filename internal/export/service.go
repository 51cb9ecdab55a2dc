package export

import (
	"context"
	"time"
)

// Exporter renders leaderboard rows in a requested format.
type Exporter interface {
	Export(ctx context.Context, rows []Row, format Format) (*Result, error)
}

// Service is the default Exporter.
type Service struct {
	now func() time.Time
	pdf func(ctx context.Context, html string) ([]byte, error)
}

// NewService creates an export service that prints PDFs with headless Chrome.
func NewService() *Service {
	return &Service{now: time.Now, pdf: exportPDF}
}

// Export renders rows; it fails with ErrNoData when rows is empty.
func (s *Service) Export(ctx context.Context, rows []Row, format Format) (*Result, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	now := s.now()

	switch format {
	case FormatPDF:
		html, err := RenderHTML(rows, now)
		if err != nil {
			return nil, err
		}
		data, err := s.pdf(ctx, html)
		if err != nil {
			return nil, err
		}
		return &Result{Data: data, Filename: Filename(now, FormatPDF), MimeType: "application/pdf"}, nil
	case FormatXLSX:
		data, err := exportXLSX(rows)
		if err != nil {
			return nil, err
		}
		return &Result{
			Data:     data,
			Filename: Filename(now, FormatXLSX),
			MimeType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		}, nil
	default:
		return nil, ErrUnknownFormat
	}
}
