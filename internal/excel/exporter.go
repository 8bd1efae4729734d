package excel

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/adventbot/pkg/models"
)

// ExportUsers writes all user advent records to an xlsx file, one row
// per user, for the admin progress report.
func ExportUsers(users []models.UserProgress, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Progress"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %v", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"User ID", "Opened Day", "Active Day", "Active Step", "Mode", "Sparks", "Codes", "Next Unlock"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("failed to build header cell: %v", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %v", err)
		}
	}

	for row, user := range users {
		values := []interface{}{
			user.ID,
			user.OpenedDay,
			user.ActiveDay,
			user.ActiveStep,
			user.Mode,
			strings.Join(user.Sparks, ", "),
			strings.Join(user.Codes, ", "),
			user.NextUnlockAt,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return fmt.Errorf("failed to build cell for row %d: %v", row+2, err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write row %d: %v", row+2, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report: %v", err)
	}
	return nil
}
