package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// RowSource yields a header row followed by data rows.
type RowSource interface {
	Name() string
	Rows(ctx context.Context) ([][]string, error)
}

type SheetsSource struct {
	service       *sheets.Service
	spreadsheetID string
	readRange     string
}

// NewSheetsSource authenticates with a service-account key file.
func NewSheetsSource(ctx context.Context, credentialsFile, spreadsheetID, readRange string) (*SheetsSource, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(b, sheets.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials file: %w", err)
	}

	service, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets client: %w", err)
	}

	return NewSheetsSourceWithService(service, spreadsheetID, readRange), nil
}

func NewSheetsSourceWithService(service *sheets.Service, spreadsheetID, readRange string) *SheetsSource {
	return &SheetsSource{
		service:       service,
		spreadsheetID: spreadsheetID,
		readRange:     readRange,
	}
}

func (s *SheetsSource) Name() string {
	return "sheet:" + s.spreadsheetID
}

func (s *SheetsSource) Rows(ctx context.Context) ([][]string, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to read range %s: %w", s.readRange, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, values := range resp.Values {
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = fmt.Sprint(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type CSVSource struct {
	name   string
	reader io.Reader
}

func NewCSVSource(name string, r io.Reader) *CSVSource {
	return &CSVSource{name: name, reader: r}
}

func (s *CSVSource) Name() string {
	return "csv:" + s.name
}

func (s *CSVSource) Rows(ctx context.Context) ([][]string, error) {
	r := csv.NewReader(s.reader)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to parse csv: %w", err)
	}
	return rows, nil
}
