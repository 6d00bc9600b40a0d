package services

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"crowdvest/internal/models"
)

// Spreadsheet column headers expected by the project importer
var importColumns = []string{
	"title", "description", "category", "min_investment",
	"roi_percent", "target_amount", "duration_months", "is_premium",
}

// ImportRowError records why one spreadsheet row was skipped
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult summarizes a bulk import run
type ImportResult struct {
	Created int              `json:"created"`
	Skipped int              `json:"skipped"`
	Errors  []ImportRowError `json:"errors,omitempty"`
}

// ImportService bulk-creates projects from an uploaded Excel workbook
type ImportService struct {
	projectService *ProjectService
}

func NewImportService(projectService *ProjectService) *ImportService {
	return &ImportService{projectService: projectService}
}

// ImportProjects reads an .xlsx workbook and creates a project per data row.
// Rows that fail validation are reported and skipped; valid rows still go in.
func (s *ImportService) ImportProjects(ctx context.Context, r io.Reader, createdBy string) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, models.NewValidationError("File is not a valid Excel workbook")
	}
	defer f.Close()

	sheetNames := f.GetSheetList()
	if len(sheetNames) == 0 {
		return nil, models.NewValidationError("Workbook has no sheets")
	}
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		sheet = sheetNames[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, models.NewValidationError("Workbook has no data rows")
	}

	columns, err := mapColumns(rows[0])
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, after the header

		project, rowErr := parseProjectRow(row, columns)
		if rowErr != nil {
			result.Skipped++
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: rowErr.Error()})
			continue
		}

		if _, err := s.projectService.Create(ctx, project, createdBy); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		result.Created++
	}

	return result, nil
}

// mapColumns resolves header names to column indexes, case-insensitively
func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var missing []string
	for _, required := range importColumns[:7] { // is_premium is optional
		if _, ok := columns[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, models.NewValidationError(
			"Missing required columns: " + strings.Join(missing, ", "))
	}
	return columns, nil
}

func parseProjectRow(row []string, columns map[string]int) (*models.Project, error) {
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	project := &models.Project{
		Title:       cell("title"),
		Description: cell("description"),
		Category:    strings.ToLower(cell("category")),
		Status:      models.ProjectStatusActive,
	}

	var err error
	if project.MinInvestment, err = parseFloatCell(cell("min_investment")); err != nil {
		return nil, fmt.Errorf("min_investment: %w", err)
	}
	if project.ROIPercent, err = parseFloatCell(cell("roi_percent")); err != nil {
		return nil, fmt.Errorf("roi_percent: %w", err)
	}
	if project.TargetAmount, err = parseFloatCell(cell("target_amount")); err != nil {
		return nil, fmt.Errorf("target_amount: %w", err)
	}

	duration := cell("duration_months")
	if project.DurationMonths, err = strconv.Atoi(duration); err != nil {
		return nil, fmt.Errorf("duration_months: %q is not a whole number", duration)
	}

	switch strings.ToLower(cell("is_premium")) {
	case "true", "yes", "1":
		project.IsPremium = true
	}

	if vErr := project.Validate(); vErr != nil {
		return nil, vErr
	}
	return project, nil
}

func parseFloatCell(value string) (float64, error) {
	if value == "" {
		return 0, fmt.Errorf("value is required")
	}
	// Tolerate currency formatting from exported sheets
	value = strings.NewReplacer("$", "", ",", "", " ", "").Replace(value)
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", value)
	}
	return parsed, nil
}
