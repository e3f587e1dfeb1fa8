package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/desertthunder/foodgram/internal/formatter"
	"github.com/desertthunder/foodgram/internal/models"
	"github.com/desertthunder/foodgram/internal/shared"
)

// CartExportOpts contains configuration for exporting many shopping lists at once.
type CartExportOpts struct {
	Format     formatter.Format // Export format
	OutputDir  string           // Output directory (default: carts_{epoch})
	NumWorkers int              // Concurrent workers (default: 4)
}

// CartExportResult reports the outcome for one user.
type CartExportResult struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	File     string `json:"file,omitempty"`
	Items    int    `json:"items"`
	Error    string `json:"error,omitempty"`
}

// BulkCartExportResult summarizes a bulk export and is written as the manifest.
type BulkCartExportResult struct {
	Format          string             `json:"format"`
	OutputDirectory string             `json:"output_directory"`
	Successful      int                `json:"successful"`
	Failed          int                `json:"failed"`
	Results         []CartExportResult `json:"results"`
	ManifestPath    string             `json:"-"`
}

// ExportCarts writes the shopping list of every given user to its own file using a pool of workers,
// then writes export_manifest.json summarizing the results.
//
// A failure for one user is recorded in the result and does not stop the others.
func (e *Engine) ExportCarts(ctx context.Context, prog chan<- ProgressUpdate, users []*models.User, opts CartExportOpts) (*BulkCartExportResult, error) {
	if e.carts == nil {
		return nil, fmt.Errorf("%w: cart store not initialized", shared.ErrServiceUnavailable)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatText
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("carts_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkCartExportResult{
		Format:          string(opts.Format),
		OutputDirectory: opts.OutputDir,
		Results:         make([]CartExportResult, 0, len(users)),
	}

	jobs := make(chan *models.User, len(users))
	results := make(chan CartExportResult, len(users))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	e.sendProgress(prog, exportQueuedUpdate(len(users)))
	for _, u := range users {
		jobs <- u
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Error == "" {
			result.Successful++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(users), res.Username, res.Items))
		} else {
			result.Failed++
			e.sendProgress(prog, exportFailedUpdate(completed, len(users), res.Username, fmt.Errorf("%s", res.Error)))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return result, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker exports shopping lists from the jobs channel until it is closed or ctx is done.
func (e *Engine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan *models.User,
	results chan<- CartExportResult,
	opts CartExportOpts,
) {
	defer wg.Done()

	for u := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- e.exportCart(u, opts)
	}
}

func (e *Engine) exportCart(u *models.User, opts CartExportOpts) CartExportResult {
	res := CartExportResult{UserID: u.ID(), Username: u.Username()}

	items, err := e.carts.ShoppingList(u.ID())
	if err != nil {
		res.Error = err.Error()
		return res
	}

	path := filepath.Join(opts.OutputDir, u.Username()+"-"+opts.Format.Filename())
	file, err := formatter.WriteExport(opts.Format, items, path)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	res.File = file
	res.Items = len(items)
	return res
}
