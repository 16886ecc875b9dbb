package Controllers

import (
	"Inspecta/Inspection"
	"Inspecta/Models"
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

// ExportResults streams every recorded result as a spreadsheet for the
// admin's offline reporting. Optional date filters narrow the range.
func ExportResults(c *fiber.Ctx) error {
	query := Models.DB.Model(&Models.InspectionResult{}).
		Preload("Appointment").Preload("Appointment.Vehicle").
		Preload("Appointment.Inspector").Preload("Appointment.Inspector.User")
	if from := c.Query("date_from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			query = query.Where("created_at >= ?", t)
		}
	}
	if to := c.Query("date_to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			query = query.Where("created_at < ?", t.AddDate(0, 0, 1))
		}
	}

	var results []Models.InspectionResult
	if err := query.Order("created_at").Find(&results).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve results"})
	}

	buf, err := resultsWorkbook(results)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build the report"})
	}

	filename := fmt.Sprintf("inspection_results_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(buf.Bytes())
}

// resultsWorkbook renders results into a styled workbook.
func resultsWorkbook(results []Models.InspectionResult) (*bytes.Buffer, error) {
	f := excelize.NewFile()

	sheetName := "Results"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"Result ID", "Date", "Plate", "Make", "Model", "Year",
		"Inspector", "Total Score", "Max Score", "Passed", "Observation",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6E6FA"},
			Pattern: 1,
		},
	})
	if err == nil {
		f.SetRowStyle(sheetName, 1, 1, headerStyle)
	}

	for rowIndex, result := range results {
		row := rowIndex + 2

		inspectorName := ""
		if result.Appointment.Inspector != nil {
			inspectorName = result.Appointment.Inspector.User.FullName
		}
		passed := "FAILED"
		if result.Passed {
			passed = "PASSED"
		}

		vehicle := result.Appointment.Vehicle
		values := []interface{}{
			result.ID,
			result.CreatedAt.Format("2006-01-02 15:04:05"),
			vehicle.PlateNumber,
			vehicle.Make,
			vehicle.Model,
			vehicle.Year,
			inspectorName,
			result.TotalScore,
			Inspection.MaxTotalScore,
			passed,
			result.OwnerObservation,
		}
		for colIndex, value := range values {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, row)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := 0; i < len(headers); i++ {
		f.SetColWidth(sheetName, string('A'+rune(i)), string('A'+rune(i)), 18)
	}

	if sheetName != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}

// ResultCertificate renders the printable certificate page of one
// result. Owners, the recording inspector and admins may open it.
func ResultCertificate(c *fiber.Ctx) error {
	result, err := loadVisibleResult(c, c.Params("id"))
	if err != nil {
		if err.Error() == "forbidden" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not your result"})
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Result not found"})
	}
	sortItemChecks(result)

	verdict := "FAILED"
	if result.Passed {
		verdict = "PASSED"
	}
	inspectorName := ""
	if result.Appointment.Inspector != nil {
		inspectorName = result.Appointment.Inspector.User.FullName
	}

	return c.Render("certificate", fiber.Map{
		"Result":    result,
		"Vehicle":   result.Appointment.Vehicle,
		"Inspector": inspectorName,
		"Verdict":   verdict,
		"MaxTotal":  Inspection.MaxTotalScore,
		"Date":      result.CreatedAt.Format("02 Jan 2006"),
	})
}
