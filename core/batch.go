package core

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Skryldev/image-client/result"
)

// BatchItem is one upload in a batch.
type BatchItem struct {
	Source  PayloadSource
	Options UploadOptions
}

// UploadBatch uploads items concurrently (fan-out / fan-in) with at most
// concurrency uploads in flight; concurrency <= 0 means one per item. Every
// item gets its own Result at the matching index. A failed item does not
// stop the others and nothing is retried.
func (c *Client) UploadBatch(ctx context.Context, items []BatchItem, concurrency int) []result.Result[RemoteImage] {
	results := make([]result.Result[RemoteImage], len(items))
	if len(items) == 0 {
		return results
	}

	var g errgroup.Group
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, item := range items {
		g.Go(func() error {
			results[i] = c.Upload(ctx, item.Source, item.Options)
			return nil
		})
	}
	// Failures live in results; the goroutines always return nil.
	_ = g.Wait()
	return results
}
