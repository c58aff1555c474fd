package recordstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"propgen/internal/types"
)

var sheetHeader = []interface{}{"id", "value", "type", "municipalityId", "neighborhoodId", "sectorId", "gridId", "grid"}

// Sheets appends records as rows of one spreadsheet tab.
type Sheets struct {
	service       *sheetsapi.Service
	spreadsheetID string
	sheet         string
	truncate      bool
	logger        *zap.Logger
}

func openSheets(ctx context.Context, target string, opts Options) (*Sheets, error) {
	id, sheet, _ := strings.Cut(target, "/")
	if id == "" {
		return nil, errors.New("sheets location needs a spreadsheet id")
	}
	if opts.SheetsCredentials == "" {
		return nil, errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH is required for sheets output")
	}
	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(opts.SheetsCredentials), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}
	return NewSheets(service, id, sheet, opts.Truncate, opts.Logger), nil
}

// NewSheets writes to spreadsheetID through an existing service. An empty
// sheet name means "Properties".
func NewSheets(service *sheetsapi.Service, spreadsheetID, sheet string, truncate bool, logger *zap.Logger) *Sheets {
	if sheet == "" {
		sheet = "Properties"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sheets{service: service, spreadsheetID: spreadsheetID, sheet: sheet, truncate: truncate, logger: logger}
}

func (s *Sheets) dest() string { return "sheets://" + s.spreadsheetID + "/" + s.sheet }

func (s *Sheets) Write(ctx context.Context, records []types.PropertyRecord) error {
	values := s.service.Spreadsheets.Values
	needHeader := s.truncate
	if s.truncate {
		if _, err := values.Clear(s.spreadsheetID, s.sheet, &sheetsapi.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
			return types.NewStorageError(s.dest(), fmt.Errorf("clear sheet: %w", err))
		}
	} else {
		resp, err := values.Get(s.spreadsheetID, s.sheet+"!A1:A1").Context(ctx).Do()
		if err != nil {
			return types.NewStorageError(s.dest(), fmt.Errorf("read header: %w", err))
		}
		needHeader = len(resp.Values) == 0
	}

	rows := make([][]interface{}, 0, len(records)+1)
	if needHeader {
		rows = append(rows, sheetHeader)
	}
	for _, r := range records {
		grid, err := json.Marshal(r.Grid)
		if err != nil {
			return types.NewStorageError(s.dest(), fmt.Errorf("encode grid for property %d: %w", r.ID, err))
		}
		rows = append(rows, []interface{}{
			r.ID, r.Value, string(r.Type), r.MunicipalityID, r.NeighborhoodID, r.SectorID, r.GridKey(), string(grid),
		})
	}
	if len(rows) == 0 {
		return nil
	}

	call := values.Append(s.spreadsheetID, s.sheet+"!A1", &sheetsapi.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)
	if _, err := call.Do(); err != nil {
		return types.NewStorageError(s.dest(), fmt.Errorf("append rows: %w", err))
	}
	s.logger.Debug("rows appended to sheet", zap.String("sheet", s.sheet), zap.Int("rows", len(rows)))
	return nil
}

func (s *Sheets) Close() error { return nil }
