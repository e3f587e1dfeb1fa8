package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ReadSource Phase = iota
	DecodeRecords
	InsertIngredients
	InsertTags
	ExportCart
)

func (p Phase) String() string {
	switch p {
	case ReadSource:
		return "read_source"
	case DecodeRecords:
		return "decode_records"
	case InsertIngredients:
		return "insert_ingredients"
	case InsertTags:
		return "insert_tags"
	case ExportCart:
		return "export_cart"
	default:
		return ""
	}
}

func readSourceUpdate(kind string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReadSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Reading %s...", kind),
	}
}

func decodedUpdate(kind string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DecodeRecords,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Decoded %d %s", count, kind),
		Data:    count,
	}
}

func insertIngredientsUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   InsertIngredients,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Inserting %d ingredients in one transaction...", total),
	}
}

func ingredientsInsertedUpdate(inserted, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   InsertIngredients,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("✓ %d inserted, %d already present", inserted, total-inserted),
	}
}

func tagUpdate(step, total int, slug string, skipped bool) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s", step, total, slug)
	if skipped {
		msg = fmt.Sprintf("[%d/%d] - %s (exists)", step, total, slug)
	}
	return ProgressUpdate{
		Phase:   InsertTags,
		Step:    step,
		Total:   total,
		Message: msg,
	}
}

func exportQueuedUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportCart,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Exporting %d shopping lists...", total),
	}
}

func exportCompletedUpdate(step, total int, username string, items int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportCart,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d ingredients)", step, total, username, items),
	}
}

func exportFailedUpdate(step, total int, username string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportCart,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, username, err),
	}
}
