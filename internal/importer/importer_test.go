package importer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, projects [][]interface{}, units [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", SheetProjects))
	for i, row := range projects {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow(SheetProjects, cell, &row))
	}

	if units != nil {
		_, err := f.NewSheet(SheetUnits)
		require.NoError(t, err)
		for i, row := range units {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, f.SetSheetRow(SheetUnits, cell, &row))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

var projectHeader = []interface{}{
	"project_code", "title", "developer", "emirate", "region",
	"property_type", "unit_type", "starting_price", "cover_image", "website_url", "description",
}

func TestParseValidProjects(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{
		projectHeader,
		{"EKB-1", "Marina Vista", "Emaar", "Dubai", "Dubai Marina", "apartment", "off_plan", 1250000, "", "https://example.com/mv", "Waterfront living"},
		{"EKB-2", "Aljada", "Arada", "Sharjah", "Muwaileh", "apartment", "ready", 680000, "", "", ""},
	}, nil)

	wb, err := Parse(buf, 0)
	require.NoError(t, err)
	require.Len(t, wb.Projects, 2)
	assert.Empty(t, wb.Errors)
	assert.Equal(t, "EKB-1", wb.Projects[0].ProjectCode)
	assert.Equal(t, 1250000.0, wb.Projects[0].StartingPrice)
	assert.Equal(t, "Sharjah", wb.Projects[1].Emirate)
}

func TestParseHeaderOrderIndependent(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{
		{"Emirate", "Title", "Project Code", "Starting Price"},
		{"Dubai", "Creek Rise", "EKB-3", "950000"},
	}, nil)

	wb, err := Parse(buf, 0)
	require.NoError(t, err)
	require.Len(t, wb.Projects, 1)
	assert.Equal(t, "EKB-3", wb.Projects[0].ProjectCode)
	assert.Equal(t, "Creek Rise", wb.Projects[0].Title)
	assert.Equal(t, 950000.0, wb.Projects[0].StartingPrice)
}

func TestParseRowErrorsDoNotAbortBatch(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{
		projectHeader,
		{"", "Missing Code", "X", "Dubai"},           // missing project_code
		{"EKB-4", "Good Row", "Y", "Dubai"},          //
		{"EKB-5", "Bad Emirate", "Z", "Atlantis"},    // unknown emirate
		{"EKB-4", "Duplicate", "W", "Dubai"},         // duplicate code within batch
	}, nil)

	wb, err := Parse(buf, 0)
	require.NoError(t, err)
	require.Len(t, wb.Projects, 1)
	assert.Equal(t, "EKB-4", wb.Projects[0].ProjectCode)

	require.Len(t, wb.Errors, 3)
	assert.Equal(t, 2, wb.Errors[0].Row)
	assert.Equal(t, "project_code", wb.Errors[0].Field)
	assert.Equal(t, "emirate", wb.Errors[1].Field)
	assert.Contains(t, wb.Errors[2].Message, "duplicate")
}

func TestParseUnitsSheet(t *testing.T) {
	buf := buildWorkbook(t,
		[][]interface{}{
			projectHeader,
			{"EKB-1", "Marina Vista", "Emaar", "Dubai"},
		},
		[][]interface{}{
			{"project_code", "unit_code", "bedrooms", "bathrooms", "size_sqft", "price", "floor", "available"},
			{"EKB-1", "MV-101", 2, 2, 1180.5, 1450000, 1, "yes"},
			{"EKB-1", "MV-102", 3, 3, 1620, 2100000, 1, "no"},
			{"EKB-1", "", 1, 1, 500, 400000, 2, ""}, // missing unit_code
		})

	wb, err := Parse(buf, 0)
	require.NoError(t, err)
	require.Len(t, wb.Units, 2)
	assert.Equal(t, "MV-101", wb.Units[0].UnitCode)
	assert.True(t, wb.Units[0].IsAvailable)
	assert.False(t, wb.Units[1].IsAvailable)
	require.Len(t, wb.Errors, 1)
	assert.Equal(t, SheetUnits, wb.Errors[0].Sheet)
	assert.Equal(t, "unit_code", wb.Errors[0].Field)
}

func TestParseRowLimit(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{
		projectHeader,
		{"EKB-1", "One", "", "Dubai"},
		{"EKB-2", "Two", "", "Dubai"},
		{"EKB-3", "Three", "", "Dubai"},
	}, nil)

	wb, err := Parse(buf, 2)
	require.NoError(t, err)
	assert.Len(t, wb.Projects, 2)
	require.Len(t, wb.Errors, 1)
	assert.Contains(t, wb.Errors[0].Message, "row limit")
}

func TestParseRejectsNonWorkbook(t *testing.T) {
	_, err := Parse(bytes.NewReader([]byte("not an xlsx")), 0)
	assert.Error(t, err)
}
