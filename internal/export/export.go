package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"menupos/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Exporter writes the local order history to an Excel file for the
// back office.
type Exporter struct {
	path   string
	logger *zerolog.Logger
}

func NewExporter(path string, logger *zerolog.Logger) *Exporter {
	return &Exporter{path: path, logger: logger}
}

// ExportOrders renders the given records (newest first, as ListAll returns
// them) into a spreadsheet and returns the file path.
func (e *Exporter) ExportOrders(ctx context.Context, orders []models.QueuedOrder) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Orders"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"ID", "Created", "Synced", "Synced At", "Customer", "Service", "Table / Address", "Total", "Final", "Payment", "Items"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(sheetName, "A1", lastHeader, headerStyle)

	for rowIdx, order := range orders {
		row := rowIdx + 2
		var payload models.Order
		// Best effort: a payload this client did not write stays blank.
		_ = json.Unmarshal(order.Payload, &payload)

		syncedAt := ""
		if order.SyncedAt != nil {
			syncedAt = order.SyncedAt.Format(time.RFC3339)
		}
		place := payload.TableNumber
		if payload.ServiceType == models.ServiceTakeaway {
			place = payload.CustomerAddress
		}

		values := []any{
			order.ID,
			order.CreatedAt.Format(time.RFC3339),
			order.Synced,
			syncedAt,
			payload.CustomerPhone,
			payload.ServiceType,
			place,
			payload.TotalAmount,
			payload.FinalAmount,
			payload.PaymentMethod,
			len(payload.Items),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "B", 22)
	_ = f.SetColWidth(sheetName, "C", "K", 16)
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("orders_%s_%s.xlsx",
		time.Now().Format("2006-01-02"),
		uuid.NewString()[:8])
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("save export file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("orders", len(orders)).Msg("order export created")
	return filePath, nil
}
