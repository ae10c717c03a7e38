package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KamilBuksa/SimpleTodo/client"
	domain "github.com/KamilBuksa/SimpleTodo/domain/todo"
	"github.com/KamilBuksa/SimpleTodo/taskutil"
)

// ExportFile writes items to path, as a workbook when the extension is
// .xlsx and as CSV otherwise.
func ExportFile(path string, items []domain.Item) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return taskutil.ExportXLSX(f, items)
	}
	return taskutil.ExportCSV(f, items)
}

// ImportResult counts what ImportFile did. Incomplete rows were created but
// could not be marked as done.
type ImportResult struct {
	Created    int
	Failed     int
	Incomplete int
}

// ImportFile creates one task per CSV row through state, marking completed
// rows as done. Rows the server rejects are counted and skipped.
func ImportFile(ctx context.Context, state *client.TaskState, path string) (ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	items, err := taskutil.ImportCSV(f)
	if err != nil {
		return ImportResult{}, err
	}

	var res ImportResult
	for _, it := range items {
		priority := it.Priority
		created, err := state.CreateTask(ctx, domain.CreatePayload{
			Title:        it.Title,
			Description:  it.Description,
			Deadline:     it.Deadline,
			Priority:     &priority,
			TimeEstimate: it.TimeEstimate,
		})
		if err != nil {
			res.Failed++
			continue
		}
		res.Created++
		if it.Completed {
			if _, err := state.ToggleTask(ctx, created.ID, true); err != nil {
				res.Incomplete++
			}
		}
	}
	return res, nil
}
