package sheets

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/adlens/meta-ads-monitor/internal/pkg/logger"
)

// ErrEmptyTable is returned when a publish is attempted with no rows.
var ErrEmptyTable = errors.New("refusing to publish empty table")

// Options control how a table is written to its tab.
type Options struct {
	IncludeHeader bool
	ClearExisting bool
}

// Publisher writes tables into tabs of the configured spreadsheet. Publish
// is idempotent for a given (tab, table) pair: the tab is cleared and
// rewritten in place, so running it twice yields the same sheet.
type Publisher struct {
	client *Client
}

// NewPublisher wraps the client in a publisher.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish writes the table into the named tab, creating the tab on first
// use. Rows are coerced to Sheets-friendly cell values, the header row is
// styled and frozen column widths applied.
func (p *Publisher) Publish(ctx context.Context, tab string, table Table, opts Options) error {
	if len(table.Rows) == 0 {
		return fmt.Errorf("%w: tab %q", ErrEmptyTable, tab)
	}
	for i, row := range table.Rows {
		if len(row) != table.Width() {
			return fmt.Errorf("tab %q: row %d has %d cells, header has %d", tab, i, len(row), table.Width())
		}
	}

	sheetID, err := p.client.sheetIDByTitle(ctx, tab)
	if err != nil {
		return fmt.Errorf("resolving tab %q: %w", tab, err)
	}

	if opts.ClearExisting {
		if err := p.client.clearValues(ctx, tab); err != nil {
			return fmt.Errorf("clearing tab %q: %w", tab, err)
		}
	}

	values := make([][]interface{}, 0, len(table.Rows)+1)
	if opts.IncludeHeader {
		header := make([]interface{}, len(table.Header))
		for i, h := range table.Header {
			header[i] = h
		}
		values = append(values, header)
	}
	for _, row := range table.Rows {
		cells := make([]interface{}, len(row))
		for i, cell := range row {
			cells[i] = coerceCell(cell)
		}
		values = append(values, cells)
	}

	cells, err := p.client.updateValues(ctx, tab, values)
	if err != nil {
		return fmt.Errorf("writing tab %q: %w", tab, err)
	}

	if err := p.client.batchUpdate(ctx, p.formatRequests(sheetID, table, opts)); err != nil {
		// Data made it in; formatting is cosmetic.
		logger.Warn("sheets: formatting failed", "tab", tab, "error", err.Error())
	}

	logger.Info("sheets: tab published", "tab", tab, "rows", len(table.Rows), "cells", cells)
	return nil
}

// coerceCell maps Go values to cells the Sheets API accepts as RAW input.
// Non-finite floats become empty cells rather than JSON encoding errors.
func coerceCell(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return ""
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return ""
		}
		return val
	case float32:
		return coerceCell(float64(val))
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case time.Time:
		return val.Format("2006-01-02")
	case string, bool:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// formatRequests builds the styling batch for a freshly written tab: bold
// grey header, fixed 130px columns, per-column number formats and a
// red-to-green gradient on any efficiency score column.
func (p *Publisher) formatRequests(sheetID int64, table Table, opts Options) []request {
	var reqs []request

	dataStart := int64(0)
	if opts.IncludeHeader {
		dataStart = 1
		reqs = append(reqs, request{RepeatCell: &repeatCellRequest{
			Range: gridRange{SheetID: sheetID, StartRowIndex: 0, EndRowIndex: 1, StartColumnIndex: 0, EndColumnIndex: int64(table.Width())},
			Cell: cellData{UserEnteredFormat: cellFormat{
				TextFormat:      &textFormat{Bold: true},
				BackgroundColor: &color{Red: 0.9, Green: 0.9, Blue: 0.9},
			}},
			Fields: "userEnteredFormat(textFormat,backgroundColor)",
		}})
	}

	reqs = append(reqs, request{UpdateDimensionProperties: &updateDimensionPropertiesRequest{
		Range:      dimensionRange{SheetID: sheetID, Dimension: "COLUMNS", StartIndex: 0, EndIndex: int64(table.Width())},
		Properties: dimensionProperties{PixelSize: 130},
		Fields:     "pixelSize",
	}})

	dataEnd := dataStart + int64(len(table.Rows))
	for col, name := range table.Header {
		nf := numberFormatFor(name)
		if nf == nil {
			continue
		}
		reqs = append(reqs, request{RepeatCell: &repeatCellRequest{
			Range: gridRange{SheetID: sheetID, StartRowIndex: dataStart, EndRowIndex: dataEnd,
				StartColumnIndex: int64(col), EndColumnIndex: int64(col) + 1},
			Cell:   cellData{UserEnteredFormat: cellFormat{NumberFormat: nf}},
			Fields: "userEnteredFormat.numberFormat",
		}})
	}

	for col, name := range table.Header {
		if !strings.Contains(strings.ToLower(name), "efficiency") {
			continue
		}
		reqs = append(reqs, request{AddConditionalFormatRule: &addConditionalFormatRuleRequest{
			Rule: conditionalFormatRule{
				Ranges: []gridRange{{SheetID: sheetID, StartRowIndex: dataStart, EndRowIndex: dataEnd,
					StartColumnIndex: int64(col), EndColumnIndex: int64(col) + 1}},
				GradientRule: &gradientRule{
					Minpoint: interpolationPoint{Type: "MIN", Color: color{Red: 0.96, Green: 0.78, Blue: 0.76}},
					Maxpoint: interpolationPoint{Type: "MAX", Color: color{Red: 0.72, Green: 0.88, Blue: 0.8}},
				},
			},
		}})
	}

	return reqs
}

// numberFormatFor picks a number format from a column name, or nil for
// plain text columns.
func numberFormatFor(header string) *numFormat {
	h := strings.ToLower(header)
	switch {
	case strings.Contains(h, "spend") || strings.Contains(h, "cost") || strings.Contains(h, "cpm"):
		return &numFormat{Type: "CURRENCY", Pattern: "$#,##0.00"}
	case strings.Contains(h, "ctr") || strings.Contains(h, "rate"):
		return &numFormat{Type: "NUMBER", Pattern: "0.00\"%\""}
	case strings.Contains(h, "score") || strings.Contains(h, "clicks") || strings.Contains(h, "views"):
		return &numFormat{Type: "NUMBER", Pattern: "0.00"}
	case strings.Contains(h, "impressions") || strings.Contains(h, "reach"):
		return &numFormat{Type: "NUMBER", Pattern: "#,##0"}
	default:
		return nil
	}
}
