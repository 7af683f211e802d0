package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"phone-console/models"
)

const (
	// BulkMaxRows caps how many employees one upload may carry.
	BulkMaxRows = 100
	// BulkMaxFileSize caps the uploaded spreadsheet at 5MB.
	BulkMaxFileSize = 5 * 1024 * 1024
	// BulkRowDelay is the pause between row submissions, keeping the import
	// deliberately serial so the backend is never flooded.
	BulkRowDelay = 100 * time.Millisecond
)

var (
	ErrBulkFileType = errors.New("file must be an Excel spreadsheet (.xlsx or .xls)")
	ErrBulkFileSize = errors.New("file size must be less than 5MB")
	ErrBulkEmpty    = errors.New("the spreadsheet appears to be empty")
	ErrBulkTooMany  = fmt.Errorf("maximum %d employees can be uploaded at once", BulkMaxRows)
)

// sheetColumns maps spreadsheet headers to employee fields. Matches the
// downloadable template.
var sheetColumns = map[string]func(*models.EmployeeInput, string){
	"job_title":      func(e *models.EmployeeInput, v string) { e.JobTitle = v },
	"department":     func(e *models.EmployeeInput, v string) { e.Department = v },
	"firstname":      func(e *models.EmployeeInput, v string) { e.Firstname = v },
	"lastname":       func(e *models.EmployeeInput, v string) { e.Lastname = v },
	"email":          func(e *models.EmployeeInput, v string) { e.Email = v },
	"phoneNumber":    func(e *models.EmployeeInput, v string) { e.PhoneNumber = v },
	"registerNumber": func(e *models.EmployeeInput, v string) { e.RegisterNumber = v },
}

// DecodeEmployeeSheet validates the upload envelope and decodes the first
// sheet into employee rows. The first row is the header.
func DecodeEmployeeSheet(filename string, size int64, r io.Reader) ([]models.EmployeeInput, error) {
	lower := strings.ToLower(filename)
	if !strings.HasSuffix(lower, ".xlsx") && !strings.HasSuffix(lower, ".xls") {
		return nil, ErrBulkFileType
	}
	if size > BulkMaxFileSize {
		return nil, ErrBulkFileSize
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrBulkEmpty
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrBulkEmpty
	}

	header := rows[0]
	records := make([]models.EmployeeInput, 0, len(rows)-1)
	for _, row := range rows[1:] {
		var record models.EmployeeInput
		empty := true
		for i, cell := range row {
			if i >= len(header) {
				break
			}
			value := strings.TrimSpace(cell)
			if value == "" {
				continue
			}
			if set, ok := sheetColumns[strings.TrimSpace(header[i])]; ok {
				set(&record, value)
				empty = false
			}
		}
		if !empty {
			records = append(records, record)
		}
	}

	if len(records) == 0 {
		return nil, ErrBulkEmpty
	}
	if len(records) > BulkMaxRows {
		return nil, ErrBulkTooMany
	}
	return records, nil
}

// EmployeeCreator is the one Employee Server call the importer needs.
// *EmployeeAPI satisfies it.
type EmployeeCreator interface {
	CreateEmployee(ctx context.Context, auth *Auth, companyID, createdBy string, input models.EmployeeInput) error
}

// BulkImporter submits decoded rows one at a time with a fixed pause between
// them. No batching, no rollback, no parallelism; a failed row is tallied and
// the import moves on.
type BulkImporter struct {
	API   EmployeeCreator
	Delay time.Duration
}

// Run imports all rows sequentially and returns the per-row tally. Row
// numbers in errors are 1-based, matching the preview table.
func (b *BulkImporter) Run(ctx context.Context, auth *Auth, companyID, createdBy string, rows []models.EmployeeInput) models.BulkResult {
	delay := b.Delay
	if delay <= 0 {
		delay = BulkRowDelay
	}

	result := models.BulkResult{Total: len(rows), Errors: []models.BulkRowError{}}
	for i, row := range rows {
		err := b.API.CreateEmployee(ctx, auth, companyID, createdBy, row)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, models.BulkRowError{
				Row:   i + 1,
				Error: UpstreamMessage(err, err.Error()),
				Data:  row,
			})
		} else {
			result.Success++
		}

		if i < len(rows)-1 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return result
			}
		}
	}
	return result
}

// BuildEmployeeTemplate produces the downloadable XLSX template with one
// sample row.
func BuildEmployeeTemplate() (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Employee Template"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	header := []any{"job_title", "department", "firstname", "lastname", "email", "phoneNumber", "registerNumber"}
	sample := []any{"Software Engineer", "IT", "John", "Doe", "john.doe@company.com", "+976-88112233", "REG-1001"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheet, "A2", &sample); err != nil {
		return nil, err
	}
	return f, nil
}
