package records

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cast"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/teemow/leadcal/internal/apperror"
	"github.com/teemow/leadcal/internal/google"
	"github.com/teemow/leadcal/internal/instrumentation"
)

// ServiceName labels sheets operations in metrics and spans.
const ServiceName = "sheets"

const (
	valueInputRaw  = "RAW"
	insertRows     = "INSERT_ROWS"
	dimensionRows  = "ROWS"
	headerRowIndex = 1
)

// NewSheetsService creates a Sheets API service.
func NewSheetsService(ctx context.Context, opts ...option.ClientOption) (*sheets.Service, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}
	return svc, nil
}

// SheetsStore is a Store over one sheet of a spreadsheet. Row 1 holds the
// header; records start on row 2. Every operation reads the sheet afresh.
type SheetsStore struct {
	svc           *sheets.Service
	spreadsheetID string
	schema        Schema
	logger        *slog.Logger
}

// NewSheetsStore creates a store for schema inside spreadsheetID.
func NewSheetsStore(svc *sheets.Service, spreadsheetID string, schema Schema) (*SheetsStore, error) {
	if svc == nil {
		return nil, fmt.Errorf("sheets service cannot be nil")
	}
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id cannot be empty")
	}
	return &SheetsStore{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		schema:        schema,
		logger:        slog.Default(),
	}, nil
}

// Schema implements Store.
func (s *SheetsStore) Schema() Schema { return s.schema }

func (s *SheetsStore) sheetRange() string {
	return "'" + strings.ReplaceAll(s.schema.Sheet, "'", "''") + "'"
}

func (s *SheetsStore) cellRange(col, row int) string {
	return fmt.Sprintf("%s!%s%d", s.sheetRange(), columnName(col), row)
}

// Validate checks the sheet's header row against the schema.
func (s *SheetsStore) Validate(ctx context.Context) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, ServiceName, "values.get")
	defer span.End()

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, fmt.Sprintf("%s!%d:%d", s.sheetRange(), headerRowIndex, headerRowIndex)).Context(ctx).Do()
	if err != nil {
		err = google.ClassifyAPIError("validate_sheet", err)
		instrumentation.SetSpanError(span, err)
		return err
	}
	var header []string
	if len(resp.Values) > 0 {
		header = toStrings(resp.Values[0])
	}
	if err := s.schema.ValidateHeader(header); err != nil {
		return err
	}
	instrumentation.SetSpanSuccess(span)
	return nil
}

type sheetRow struct {
	number int
	record Record
}

// read returns the header and the non-empty rows with their 1-based sheet
// row numbers.
func (s *SheetsStore) read(ctx context.Context, op string) ([]string, []sheetRow, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, ServiceName, "values.get")
	defer span.End()

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetRange()).Context(ctx).Do()
	if err != nil {
		err = google.ClassifyAPIError(op, err)
		instrumentation.SetSpanError(span, err)
		return nil, nil, err
	}
	if len(resp.Values) == 0 {
		return nil, nil, apperror.Unavailable(op, fmt.Errorf("sheet %q has no header row", s.schema.Sheet))
	}

	header := toStrings(resp.Values[0])
	rows := make([]sheetRow, 0, len(resp.Values)-1)
	for i, raw := range resp.Values[1:] {
		cells := toStrings(raw)
		if isBlank(cells) {
			continue
		}
		rec := make(Record, len(header))
		for j, h := range header {
			if h == "" {
				continue
			}
			if j < len(cells) {
				rec[Field(h)] = cells[j]
			} else {
				rec[Field(h)] = ""
			}
		}
		rows = append(rows, sheetRow{number: i + 2, record: rec})
	}

	instrumentation.SetSpanSuccess(span)
	return header, rows, nil
}

func (s *SheetsStore) findRow(ctx context.Context, op, id string) ([]string, *sheetRow, error) {
	header, rows, err := s.read(ctx, op)
	if err != nil {
		return nil, nil, err
	}
	for i := range rows {
		if rows[i].record[s.schema.Key] == id {
			return header, &rows[i], nil
		}
	}
	return header, nil, nil
}

// Find implements Store.
func (s *SheetsStore) Find(ctx context.Context, pred Predicate) (Record, bool, error) {
	_, rows, err := s.read(ctx, "find")
	if err != nil {
		return nil, false, err
	}
	for _, r := range rows {
		if pred(r.record) {
			return r.record, true, nil
		}
	}
	return nil, false, nil
}

// FindAll implements Store.
func (s *SheetsStore) FindAll(ctx context.Context, pred Predicate) ([]Record, error) {
	_, rows, err := s.read(ctx, "find_all")
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, r := range rows {
		if pred(r.record) {
			out = append(out, r.record)
		}
	}
	return out, nil
}

// Insert implements Store.
func (s *SheetsStore) Insert(ctx context.Context, rec Record) (string, error) {
	id := rec[s.schema.Key]
	if id == "" {
		return "", apperror.Input("insert", "%s is required", s.schema.Key)
	}

	ctx, span := instrumentation.StartGoogleAPISpan(ctx, ServiceName, "values.append")
	defer span.End()

	row := make([]interface{}, len(s.schema.Fields))
	for i, f := range s.schema.Fields {
		row[i] = rec[f]
	}

	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.sheetRange(), &sheets.ValueRange{
		Values: [][]interface{}{row},
	}).ValueInputOption(valueInputRaw).InsertDataOption(insertRows).Context(ctx).Do()
	if err != nil {
		err = google.ClassifyAPIError("insert", err)
		instrumentation.SetSpanError(span, err)
		return "", err
	}

	instrumentation.SetSpanSuccess(span)
	return id, nil
}

// Update implements Store.
func (s *SheetsStore) Update(ctx context.Context, id string, fields Record) ([]Field, error) {
	header, row, err := s.findRow(ctx, "update", id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperror.NotFound("update", "no %s record with %s %q", s.schema.Sheet, s.schema.Key, id)
	}

	written := orderedFields(s.schema, fields)
	data := make([]*sheets.ValueRange, 0, len(written))
	for _, f := range written {
		if f == s.schema.Key {
			return nil, apperror.Input("update", "field %q cannot be updated", f)
		}
		col := indexOf(header, string(f))
		if col < 0 {
			return nil, apperror.Input("update", "sheet %q has no column %q", s.schema.Sheet, f)
		}
		data = append(data, &sheets.ValueRange{
			Range:  s.cellRange(col, row.number),
			Values: [][]interface{}{{fields[f]}},
		})
	}
	if len(data) == 0 {
		return nil, nil
	}

	ctx, span := instrumentation.StartGoogleAPISpan(ctx, ServiceName, "values.batchUpdate")
	defer span.End()

	_, err = s.svc.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: valueInputRaw,
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		err = google.ClassifyAPIError("update", err)
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	instrumentation.SetSpanSuccess(span)
	return written, nil
}

// Delete implements Store.
func (s *SheetsStore) Delete(ctx context.Context, id string) (bool, error) {
	_, row, err := s.findRow(ctx, "delete", id)
	if err != nil {
		return false, err
	}
	if row == nil {
		return false, nil
	}

	sheetID, err := s.sheetID(ctx)
	if err != nil {
		return false, err
	}

	ctx, span := instrumentation.StartGoogleAPISpan(ctx, ServiceName, "spreadsheets.batchUpdate")
	defer span.End()

	_, err = s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:         sheetID,
					Dimension:       dimensionRows,
					StartIndex:      int64(row.number - 1),
					EndIndex:        int64(row.number),
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		err = google.ClassifyAPIError("delete", err)
		instrumentation.SetSpanError(span, err)
		return false, err
	}

	instrumentation.SetSpanSuccess(span)
	return true, nil
}

func (s *SheetsStore) sheetID(ctx context.Context) (int64, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, ServiceName, "spreadsheets.get")
	defer span.End()

	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		err = google.ClassifyAPIError("delete", err)
		instrumentation.SetSpanError(span, err)
		return 0, err
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.schema.Sheet {
			return sh.Properties.SheetId, nil
		}
	}
	return 0, apperror.NotFound("delete", "sheet %q not found in spreadsheet", s.schema.Sheet)
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = strings.TrimSpace(cast.ToString(v))
	}
	return out
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}
