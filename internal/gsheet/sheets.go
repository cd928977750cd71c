package gsheet

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/phuslu/log"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	tokenURL     = "https://oauth2.googleapis.com/token"
	columnWidth  = 100
	rowHeight    = 21
	wrapStrategy = "CLIP"
)

// Config 是 Google Sheets 的连接配置。
type Config struct {
	SpreadsheetID string `yaml:"spreadsheet_id"`
	SheetName     string `yaml:"sheet_name"`
	ClientEmail   string `yaml:"client_email"`
	PrivateKey    string `yaml:"private_key"`
	// Endpoint 覆盖 API 地址，用于测试。
	Endpoint string `yaml:"endpoint"`
}

// ErrNotConfigured 表示缺少表格凭据。
var ErrNotConfigured = errors.New("google sheets environment variables are not set")

// Sheet 是职位表格的读写客户端。
type Sheet struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// Open 使用服务账号凭据连接表格。httpClient 非空时直接使用，跳过 OAuth。
func Open(ctx context.Context, cfg Config, httpClient *http.Client, logger *log.Logger) (*Sheet, error) {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	if cfg.SpreadsheetID == "" {
		return nil, ErrNotConfigured
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Jobs"
	}
	opts := []option.ClientOption{}
	switch {
	case httpClient != nil:
		opts = append(opts, option.WithHTTPClient(httpClient))
	case cfg.ClientEmail != "" && cfg.PrivateKey != "":
		jc := &jwt.Config{
			Email:      cfg.ClientEmail,
			PrivateKey: []byte(cfg.PrivateKey),
			Scopes:     []string{sheets.SpreadsheetsScope},
			TokenURL:   tokenURL,
		}
		opts = append(opts, option.WithHTTPClient(jc.Client(ctx)))
	default:
		return nil, ErrNotConfigured
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Sheet{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheetName: cfg.SheetName, logger: logger}, nil
}

// rows 读取整张表。
func (s *Sheet) rows(ctx context.Context) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetName).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", s.sheetName, err)
	}
	out := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = fmt.Sprint(cell)
		}
		out = append(out, row)
	}
	return out, nil
}

// ExistingKeys 返回表格中已有的 Job ID 与 URL。
func (s *Sheet) ExistingKeys(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.rows(ctx)
	if err != nil {
		return nil, err
	}
	keys := make(map[string]struct{}, len(rows)*2)
	for _, row := range rows {
		if isHeader(row) {
			continue
		}
		job := JobFromRow(row)
		if job.JobID != "" {
			keys[job.JobID] = struct{}{}
		}
		if job.URL != "" {
			keys[job.URL] = struct{}{}
		}
	}
	return keys, nil
}

// Upload 追加行；表格为空时先写表头。写入成功后尽力设置格式。
func (s *Sheet) Upload(ctx context.Context, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	existing, err := s.rows(ctx)
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		values := append([][]any{toValues(Headers())}, toGrid(rows)...)
		_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, s.sheetName+"!A1", &sheets.ValueRange{Values: values}).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("write sheet %q: %w", s.sheetName, err)
		}
	} else {
		_, err = s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.sheetName, &sheets.ValueRange{Values: toGrid(rows)}).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("append sheet %q: %w", s.sheetName, err)
		}
	}
	s.logger.Info().Str("sheet", s.sheetName).Int("rows", len(rows)).Msg("uploaded rows to sheet")

	if err := s.format(ctx, int64(len(existing)), int64(len(existing)+len(rows))); err != nil {
		s.logger.Warn().Err(err).Str("sheet", s.sheetName).Msg("apply sheet formatting failed, continuing without it")
	}
	return nil
}

func (s *Sheet) sheetID(ctx context.Context) (int64, error) {
	resp, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	for _, sh := range resp.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.sheetName {
			return sh.Properties.SheetId, nil
		}
	}
	return 0, nil
}

func (s *Sheet) format(ctx context.Context, startRow, endRow int64) error {
	id, err := s.sheetID(ctx)
	if err != nil {
		return err
	}
	cols := int64(len(Columns) + 1)
	requests := []*sheets.Request{
		{UpdateDimensionProperties: &sheets.UpdateDimensionPropertiesRequest{
			Range:      &sheets.DimensionRange{SheetId: id, Dimension: "ROWS", StartIndex: startRow, EndIndex: endRow + 1},
			Properties: &sheets.DimensionProperties{PixelSize: rowHeight},
			Fields:     "pixelSize",
		}},
		{UpdateDimensionProperties: &sheets.UpdateDimensionPropertiesRequest{
			Range:      &sheets.DimensionRange{SheetId: id, Dimension: "COLUMNS", StartIndex: 0, EndIndex: cols},
			Properties: &sheets.DimensionProperties{PixelSize: columnWidth},
			Fields:     "pixelSize",
		}},
		{RepeatCell: &sheets.RepeatCellRequest{
			Range:  &sheets.GridRange{SheetId: id, StartRowIndex: startRow, EndRowIndex: endRow + 1, StartColumnIndex: 0, EndColumnIndex: cols},
			Cell:   &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{WrapStrategy: wrapStrategy}},
			Fields: "userEnteredFormat.wrapStrategy",
		}},
	}
	_, err = s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).Context(ctx).Do()
	return err
}

func toValues(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

func toGrid(rows [][]string) [][]any {
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, toValues(r))
	}
	return out
}
