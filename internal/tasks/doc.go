// Package tasks runs batch jobs against the store with real-time progress reporting.
//
// # Operations
//
// [Engine] provides three operations:
//
//  1. [Engine.LoadIngredients] : seed the ingredient catalog
//     - Reads a JSON array of {name, measurement_unit} objects
//     - Inserts every new ingredient in one transaction
//     - Skips name and unit pairs that already exist
//
//  2. [Engine.LoadTags] : seed the tag catalog
//     - Reads a JSON array of {name, color, slug} objects
//     - Creates tags whose slug is not taken yet
//
//  3. [Engine.ExportCarts] : write shopping lists for many users
//     - Fans users out to a pool of workers
//     - Writes one file per user and an export_manifest.json
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
