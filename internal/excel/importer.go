// Package excel imports study content from spreadsheets.
package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/xuri/excelize/v2"

	"github.com/example/studyapp/internal/audio"
	"github.com/example/studyapp/internal/database"
	"github.com/example/studyapp/internal/logger"
	"github.com/example/studyapp/pkg/models"
)

// ErrInvalidImport is returned for import requests that cannot be run
var ErrInvalidImport = errors.New("invalid import")

// StatusCompleted is written into the status column of imported rows
const StatusCompleted = "completed"

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath     string      // Path to the Excel or CSV file
	SheetName    string      // Name of the sheet to import (xlsx only)
	ContentType  ContentType // Column layout of the sheet
	CategoryName string      // Created when no category has CategorySlug
	CategorySlug string
	StartRow     int  // The row to start importing from (1-based index)
	MarkStatus   bool // Write "completed" into the status column of imported rows
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		SheetName:   "Sheet1",
		ContentType: ContentDaily,
		StartRow:    2, // By default, start from the second row (skip header)
		MarkStatus:  true,
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	CategoryID         string   `json:"category_id"`
	CategoryCreated    bool     `json:"category_created"`
	TotalProcessed     int      `json:"total_processed"`
	SessionsUpserted   int      `json:"sessions_upserted"`
	ExpressionsCreated int      `json:"expressions_created"`
	Skipped            int      `json:"skipped"`
	TotalSessions      int      `json:"total_sessions"`
	Errors             []string `json:"errors"`
}

// Importer writes spreadsheet rows as categories, sessions and expressions
type Importer struct {
	categories  *database.CategoryRepository
	sessions    *database.SessionRepository
	expressions *database.ExpressionRepository
	log         *logger.Logger
}

// NewImporter creates an importer over db
func NewImporter(db *sqlx.DB, log *logger.Logger) *Importer {
	return &Importer{
		categories:  database.NewCategoryRepository(db),
		sessions:    database.NewSessionRepository(db),
		expressions: database.NewExpressionRepository(db),
		log:         log.With("component", "excel.Importer"),
	}
}

type record struct {
	row   int // 1-based row in the source
	cells []string
}

func (r record) get(column string) string {
	if column == "" {
		return ""
	}
	idx, err := excelize.ColumnNameToNumber(column)
	if err != nil || idx > len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[idx-1])
}

type sessionGroup struct {
	number  int
	records []record
}

// Import reads the file and writes its content. Sessions already present are
// updated in place and their expressions replaced.
func (im *Importer) Import(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	if _, ok := rules[config.ContentType]; !ok {
		return nil, fmt.Errorf("%w: unknown content type %q", ErrInvalidImport, config.ContentType)
	}
	if config.CategorySlug == "" {
		return nil, fmt.Errorf("%w: category slug is required", ErrInvalidImport)
	}
	if config.StartRow < 1 {
		config.StartRow = 1
	}

	// Check the file extension
	ext := strings.ToLower(filepath.Ext(config.FilePath))

	var (
		records []record
		book    *excelize.File
		err     error
	)
	switch ext {
	case ".csv":
		records, err = readCSV(config)
	case ".xlsx", ".xlsm":
		book, err = excelize.OpenFile(config.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open Excel file: %w", err)
		}
		defer book.Close()
		records, err = readSheet(book, config)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrInvalidImport, ext)
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}

	category, err := im.ensureCategory(ctx, config, result)
	if err != nil {
		return nil, err
	}
	slug := category.SlugOrEmpty()
	audioPath := func(file string) string {
		if strings.Contains(file, "/") {
			return file
		}
		return audio.BuildPath(slug, file)
	}

	mapping := config.ContentType.Mapping()
	groups, imported := groupBySession(records, mapping, result)

	for _, g := range groups {
		session := &models.Session{CategoryID: category.ID, SessionNumber: g.number}
		config.ContentType.applySession(session, g.records[0], audioPath)
		if err := im.sessions.Upsert(ctx, session); err != nil {
			return result, err
		}
		result.SessionsUpserted++

		expressions := make([]models.Expression, 0, len(g.records))
		for _, r := range g.records {
			english, korean := r.get(mapping.EnglishColumn), r.get(mapping.KoreanColumn)
			if english == "" || korean == "" {
				// session-only rows, such as a pattern header, carry no expression
				if english != "" || korean != "" {
					result.Skipped++
					result.Errors = append(result.Errors, fmt.Sprintf("Row %d: expression needs both english and korean", r.row))
				}
				continue
			}
			e := models.Expression{
				DisplayOrder: len(expressions) + 1,
				English:      english,
				Korean:       korean,
			}
			if file := r.get(mapping.AudioColumn); file != "" {
				p := audioPath(file)
				e.AudioURL = &p
			}
			expressions = append(expressions, e)
		}

		if err := im.expressions.ReplaceForSession(ctx, session.ID, expressions); err != nil {
			return result, err
		}
		result.ExpressionsCreated += len(expressions)
	}

	total, err := im.categories.RecountTotalSessions(ctx, category.ID)
	if err != nil {
		return result, err
	}
	result.TotalSessions = total

	if book != nil && config.MarkStatus && mapping.StatusColumn != "" && len(imported) > 0 {
		if err := markImported(book, config.SheetName, mapping.StatusColumn, imported); err != nil {
			return result, err
		}
	}

	im.log.Info("import finished",
		"file", config.FilePath,
		"category", slug,
		"content_type", string(config.ContentType),
		"sessions", result.SessionsUpserted,
		"expressions", result.ExpressionsCreated,
		"skipped", result.Skipped,
	)
	return result, nil
}

func (im *Importer) ensureCategory(ctx context.Context, config ImportConfig, result *ImportResult) (*models.Category, error) {
	category, err := im.categories.GetBySlug(ctx, config.CategorySlug)
	if err != nil {
		return nil, err
	}
	if category != nil {
		result.CategoryID = category.ID
		return category, nil
	}

	existing, err := im.categories.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get existing categories: %w", err)
	}
	name := config.CategoryName
	if name == "" {
		name = config.CategorySlug
	}
	slug := config.CategorySlug
	category = &models.Category{
		Name:         name,
		Slug:         &slug,
		DisplayOrder: len(existing) + 1,
		ContentType:  string(config.ContentType),
	}
	if err := im.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	result.CategoryID = category.ID
	result.CategoryCreated = true
	return category, nil
}

// groupBySession buckets records by session number, ascending. It returns the
// source rows that will be imported.
func groupBySession(records []record, mapping FieldMapping, result *ImportResult) ([]sessionGroup, []int) {
	byNumber := make(map[int]*sessionGroup)
	imported := make([]int, 0, len(records))
	for _, r := range records {
		if isBlank(r.cells) {
			continue
		}
		result.TotalProcessed++

		number, ok := parseSessionNumber(r.get(mapping.SessionColumn))
		if !ok {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: invalid session number %q", r.row, r.get(mapping.SessionColumn)))
			continue
		}
		g, ok := byNumber[number]
		if !ok {
			g = &sessionGroup{number: number}
			byNumber[number] = g
		}
		g.records = append(g.records, r)
		imported = append(imported, r.row)
	}

	groups := make([]sessionGroup, 0, len(byNumber))
	for _, g := range byNumber {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].number < groups[j].number })
	return groups, imported
}

func readSheet(f *excelize.File, config ImportConfig) ([]record, error) {
	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	records := make([]record, 0, len(rows))
	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 {
			continue
		}
		records = append(records, record{row: i + 1, cells: row})
	}
	return records, nil
}

func readCSV(config ImportConfig) ([]record, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var records []record
	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rowNum++
		if rowNum < config.StartRow {
			continue
		}
		records = append(records, record{row: rowNum, cells: row})
	}
	return records, nil
}

func markImported(f *excelize.File, sheet, column string, rows []int) error {
	for _, row := range rows {
		if err := f.SetCellValue(sheet, column+strconv.Itoa(row), StatusCompleted); err != nil {
			return fmt.Errorf("failed to mark row %d: %w", row, err)
		}
	}
	if err := f.Save(); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseSessionNumber(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
