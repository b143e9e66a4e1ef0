package importer

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nihalvp321/ekarbot-server/internal/models"
)

// Result summarizes one applied import batch.
type Result struct {
	ProjectsCreated int        `json:"projects_created"`
	ProjectsUpdated int        `json:"projects_updated"`
	UnitsCreated    int        `json:"units_created"`
	UnitsUpdated    int        `json:"units_updated"`
	Errors          []RowError `json:"errors"`
}

// Apply upserts the validated workbook into the database. Projects match
// on ProjectCode, units on (project, UnitCode). Rows referencing a
// project that exists neither in the batch nor in the database are
// reported and skipped.
func Apply(db *gorm.DB, wb *Workbook) (*Result, error) {
	res := &Result{Errors: wb.Errors}

	err := db.Transaction(func(tx *gorm.DB) error {
		projectIDs := make(map[string]uuid.UUID)

		for _, row := range wb.Projects {
			var existing models.Project
			err := tx.Where("project_code = ?", row.ProjectCode).First(&existing).Error

			switch {
			case err == nil:
				existing.Title = row.Title
				existing.Developer = row.Developer
				existing.Emirate = row.Emirate
				existing.Region = row.Region
				existing.PropertyType = row.PropertyType
				existing.UnitType = row.UnitType
				existing.StartingPrice = row.StartingPrice
				existing.CoverImage = row.CoverImage
				existing.WebsiteURL = row.WebsiteURL
				existing.Description = row.Description
				if err := tx.Save(&existing).Error; err != nil {
					return fmt.Errorf("failed to update project %s: %w", row.ProjectCode, err)
				}
				projectIDs[row.ProjectCode] = existing.ID
				res.ProjectsUpdated++

			case err == gorm.ErrRecordNotFound:
				project := models.Project{
					ProjectCode:   row.ProjectCode,
					Title:         row.Title,
					Developer:     row.Developer,
					Emirate:       row.Emirate,
					Region:        row.Region,
					PropertyType:  row.PropertyType,
					UnitType:      row.UnitType,
					StartingPrice: row.StartingPrice,
					CoverImage:    row.CoverImage,
					WebsiteURL:    row.WebsiteURL,
					Description:   row.Description,
					Status:        "active",
				}
				if err := tx.Create(&project).Error; err != nil {
					return fmt.Errorf("failed to create project %s: %w", row.ProjectCode, err)
				}
				projectIDs[row.ProjectCode] = project.ID
				res.ProjectsCreated++

			default:
				return err
			}
		}

		for _, row := range wb.Units {
			projectID, ok := projectIDs[row.ProjectCode]
			if !ok {
				var project models.Project
				if err := tx.Where("project_code = ?", row.ProjectCode).First(&project).Error; err != nil {
					res.Errors = append(res.Errors, RowError{
						Sheet: SheetUnits, Row: row.Line, Field: "project_code",
						Message: fmt.Sprintf("project %q not found", row.ProjectCode),
					})
					continue
				}
				projectID = project.ID
				projectIDs[row.ProjectCode] = projectID
			}

			var existing models.Unit
			err := tx.Where("project_id = ? AND unit_code = ?", projectID, row.UnitCode).First(&existing).Error

			switch {
			case err == nil:
				existing.Bedrooms = row.Bedrooms
				existing.Bathrooms = row.Bathrooms
				existing.SizeSqft = row.SizeSqft
				existing.Price = row.Price
				existing.Floor = row.Floor
				existing.IsAvailable = row.IsAvailable
				if err := tx.Save(&existing).Error; err != nil {
					return fmt.Errorf("failed to update unit %s/%s: %w", row.ProjectCode, row.UnitCode, err)
				}
				res.UnitsUpdated++

			case err == gorm.ErrRecordNotFound:
				unit := models.Unit{
					ProjectID:   projectID,
					UnitCode:    row.UnitCode,
					Bedrooms:    row.Bedrooms,
					Bathrooms:   row.Bathrooms,
					SizeSqft:    row.SizeSqft,
					Price:       row.Price,
					Floor:       row.Floor,
					IsAvailable: row.IsAvailable,
				}
				if err := tx.Create(&unit).Error; err != nil {
					return fmt.Errorf("failed to create unit %s/%s: %w", row.ProjectCode, row.UnitCode, err)
				}
				res.UnitsCreated++

			default:
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}
