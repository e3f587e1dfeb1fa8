// package formatter renders shopping lists as plain text, CSV or Markdown
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/foodgram/internal/models"
	"github.com/desertthunder/foodgram/internal/shared"
)

// Format is a shopping list export format.
type Format string

const (
	FormatText     Format = "txt"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
)

// BaseFilename is the attachment name of a shopping list without extension.
const BaseFilename = "cart-list"

// ParseFormat converts a user supplied name into a [Format]. An empty name selects plain text.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "txt", "text":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %q", shared.ErrUnsupportedFormat, name)
	}
}

// ContentType returns the MIME type used when serving f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Filename returns the default file name for f, e.g. cart-list.txt.
func (f Format) Filename() string {
	return BaseFilename + "." + string(f)
}

// Export renders items in format f.
func Export(f Format, items []models.ShoppingListItem) ([]byte, error) {
	switch f {
	case FormatText:
		return ExportToText(items)
	case FormatCSV:
		return ExportToCSV(items)
	case FormatMarkdown:
		return ExportToMarkdown(items)
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrUnsupportedFormat, string(f))
	}
}

// ExportToText writes one "name (unit) - total" line per ingredient
func ExportToText(items []models.ShoppingListItem) ([]byte, error) {
	var buf bytes.Buffer
	for _, item := range items {
		fmt.Fprintf(&buf, "%s (%s) - %d\n", item.Name, item.MeasurementUnit, item.Total)
	}
	return buf.Bytes(), nil
}

// ExportToCSV converts a shopping list to CSV format with columns: Ingredient, Unit, Total
func ExportToCSV(items []models.ShoppingListItem) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Ingredient", "Unit", "Total"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range items {
		record := []string{item.Name, item.MeasurementUnit, strconv.Itoa(item.Total)}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a shopping list to a Markdown checklist
func ExportToMarkdown(items []models.ShoppingListItem) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Shopping list\n\n")
	if len(items) == 0 {
		buf.WriteString("_Your cart is empty._\n")
		return buf.Bytes(), nil
	}

	fmt.Fprintf(&buf, "**Ingredients**: %d\n\n", len(items))
	for _, item := range items {
		fmt.Fprintf(&buf, "- [ ] %s (%s): %d\n", item.Name, item.MeasurementUnit, item.Total)
	}

	return buf.Bytes(), nil
}

// Write renders items in format f to w.
func Write(w io.Writer, f Format, items []models.ShoppingListItem) error {
	data, err := Export(f, items)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write shopping list: %w", err)
	}
	return nil
}

// WriteExport writes a shopping list to path.
//
// Defaults to [Format.Filename] in the working directory.
func WriteExport(f Format, items []models.ShoppingListItem, path string) (string, error) {
	if path == "" {
		path = f.Filename()
	}

	data, err := Export(f, items)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}
