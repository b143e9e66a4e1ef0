// Package importer handles Excel bulk import of projects and units.
// Validation failures skip the offending row and are reported back per
// row; a bad row never aborts the batch.
package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"
)

const (
	SheetProjects = "Projects"
	SheetUnits    = "Units"
)

var emirates = map[string]struct{}{
	"dubai": {}, "abu dhabi": {}, "sharjah": {}, "ajman": {},
	"ras al khaimah": {}, "fujairah": {}, "umm al quwain": {},
}

type ProjectRow struct {
	Line          int
	ProjectCode   string  `validate:"required"`
	Title         string  `validate:"required"`
	Developer     string
	Emirate       string  `validate:"required"`
	Region        string
	PropertyType  string
	UnitType      string
	StartingPrice float64 `validate:"gte=0"`
	CoverImage    string
	WebsiteURL    string  `validate:"omitempty,url"`
	Description   string
}

type UnitRow struct {
	Line        int
	ProjectCode string  `validate:"required"`
	UnitCode    string  `validate:"required"`
	Bedrooms    int     `validate:"gte=0"`
	Bathrooms   int     `validate:"gte=0"`
	SizeSqft    float64 `validate:"gte=0"`
	Price       float64 `validate:"gte=0"`
	Floor       int
	IsAvailable bool
}

// RowError points at one rejected spreadsheet row.
type RowError struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Workbook is the validated content of an uploaded file, ready to apply.
type Workbook struct {
	Projects []ProjectRow
	Units    []UnitRow
	Errors   []RowError
}

var validate = validator.New()

// Parse reads an .xlsx stream and validates every row. Returns an error
// only when the file itself is unreadable or the Projects sheet is
// missing; row-level problems land in Workbook.Errors.
func Parse(r io.Reader, maxRows int) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	wb := &Workbook{}

	projectRows, err := f.GetRows(SheetProjects)
	if err != nil {
		return nil, fmt.Errorf("workbook has no %q sheet", SheetProjects)
	}
	wb.parseProjects(projectRows, maxRows)

	if unitRows, err := f.GetRows(SheetUnits); err == nil {
		wb.parseUnits(unitRows, maxRows)
	}

	return wb, nil
}

func (wb *Workbook) parseProjects(rows [][]string, maxRows int) {
	if len(rows) < 2 {
		return
	}
	cols := headerIndex(rows[0])

	seen := make(map[string]int)
	for i, cells := range rows[1:] {
		line := i + 2 // 1-based, after header
		if maxRows > 0 && i >= maxRows {
			wb.addError(SheetProjects, line, "", fmt.Sprintf("row limit of %d exceeded, remaining rows skipped", maxRows))
			break
		}
		if blankRow(cells) {
			continue
		}

		row := ProjectRow{
			Line:          line,
			ProjectCode:   strings.TrimSpace(cell(cells, cols, "project_code")),
			Title:         strings.TrimSpace(cell(cells, cols, "title")),
			Developer:     strings.TrimSpace(cell(cells, cols, "developer")),
			Emirate:       strings.TrimSpace(cell(cells, cols, "emirate")),
			Region:        strings.TrimSpace(cell(cells, cols, "region")),
			PropertyType:  strings.TrimSpace(cell(cells, cols, "property_type")),
			UnitType:      strings.TrimSpace(cell(cells, cols, "unit_type")),
			StartingPrice: numCell(cells, cols, "starting_price"),
			CoverImage:    strings.TrimSpace(cell(cells, cols, "cover_image")),
			WebsiteURL:    strings.TrimSpace(cell(cells, cols, "website_url")),
			Description:   strings.TrimSpace(cell(cells, cols, "description")),
		}

		if !wb.checkRow(SheetProjects, line, row) {
			continue
		}
		if _, ok := emirates[strings.ToLower(row.Emirate)]; !ok {
			wb.addError(SheetProjects, line, "emirate", fmt.Sprintf("unknown emirate %q", row.Emirate))
			continue
		}
		if prev, dup := seen[row.ProjectCode]; dup {
			wb.addError(SheetProjects, line, "project_code", fmt.Sprintf("duplicate of row %d", prev))
			continue
		}
		seen[row.ProjectCode] = line

		wb.Projects = append(wb.Projects, row)
	}
}

func (wb *Workbook) parseUnits(rows [][]string, maxRows int) {
	if len(rows) < 2 {
		return
	}
	cols := headerIndex(rows[0])

	for i, cells := range rows[1:] {
		line := i + 2
		if maxRows > 0 && i >= maxRows {
			wb.addError(SheetUnits, line, "", fmt.Sprintf("row limit of %d exceeded, remaining rows skipped", maxRows))
			break
		}
		if blankRow(cells) {
			continue
		}

		row := UnitRow{
			Line:        line,
			ProjectCode: strings.TrimSpace(cell(cells, cols, "project_code")),
			UnitCode:    strings.TrimSpace(cell(cells, cols, "unit_code")),
			Bedrooms:    int(numCell(cells, cols, "bedrooms")),
			Bathrooms:   int(numCell(cells, cols, "bathrooms")),
			SizeSqft:    numCell(cells, cols, "size_sqft"),
			Price:       numCell(cells, cols, "price"),
			Floor:       int(numCell(cells, cols, "floor")),
			IsAvailable: boolCell(cells, cols, "available"),
		}

		if !wb.checkRow(SheetUnits, line, row) {
			continue
		}
		wb.Units = append(wb.Units, row)
	}
}

func (wb *Workbook) checkRow(sheet string, line int, row interface{}) bool {
	err := validate.Struct(row)
	if err == nil {
		return true
	}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			wb.addError(sheet, line, snakeCase(fe.Field()), fmt.Sprintf("failed %q validation", fe.Tag()))
		}
	} else {
		wb.addError(sheet, line, "", err.Error())
	}
	return false
}

func (wb *Workbook) addError(sheet string, row int, field, msg string) {
	wb.Errors = append(wb.Errors, RowError{Sheet: sheet, Row: row, Field: field, Message: msg})
}

// headerIndex maps normalized header names to their column position.
// "Starting Price", "starting_price" and "StartingPrice " all resolve
// the same way.
func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.ReplaceAll(key, " ", "_")
		if key != "" {
			cols[key] = i
		}
	}
	return cols
}

func cell(cells []string, cols map[string]int, key string) string {
	idx, ok := cols[key]
	if !ok || idx >= len(cells) {
		return ""
	}
	return cells[idx]
}

func numCell(cells []string, cols map[string]int, key string) float64 {
	s := strings.TrimSpace(cell(cells, cols, key))
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func boolCell(cells []string, cols map[string]int, key string) bool {
	s := strings.ToLower(strings.TrimSpace(cell(cells, cols, key)))
	if s == "" {
		return true // available unless stated otherwise
	}
	return s == "yes" || s == "true" || s == "1" || s == "y"
}

// snakeCase turns a struct field name into its spreadsheet column name,
// e.g. "ProjectCode" -> "project_code".
func snakeCase(s string) string {
	var sb strings.Builder
	prevUpper := false
	for i, r := range s {
		isUpper := r >= 'A' && r <= 'Z'
		if isUpper {
			if i > 0 && !prevUpper {
				sb.WriteByte('_')
			}
			sb.WriteRune(r + ('a' - 'A'))
		} else {
			sb.WriteRune(r)
		}
		prevUpper = isUpper
	}
	return sb.String()
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
