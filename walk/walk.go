// Package walk fans an operation out over every item of a collection and
// joins on completion.
package walk

import (
	"context"
	"iter"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
)

// Walk invokes fn once per item, each on its own goroutine, and returns after
// every invocation has returned. There is no ordering between items. An empty
// collection returns nil without invoking fn.
//
// The first error cancels the context handed to the remaining invocations and
// is returned once all of them have finished. Nested calls each own their own
// group, so a Walk inside fn never joins on its parent's items.
func Walk[T any](ctx context.Context, items iter.Seq[T], fn func(ctx context.Context, item T) error) error {
	g, gctx := errgroup.WithContext(ctx)

	for item := range items {
		g.Go(func() error {
			return fn(gctx, item)
		})
	}

	return g.Wait()
}

// Slice enumerates items by index.
func Slice[T any](items []T) iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := range items {
			if !yield(items[i]) {
				return
			}
		}
	}
}

// Selection enumerates each matched node of sel as its own selection.
// Removing a node from the tree does not alter sel, so items may be stripped
// while the walk is in progress.
func Selection(sel *goquery.Selection) iter.Seq[*goquery.Selection] {
	return func(yield func(*goquery.Selection) bool) {
		for i := range sel.Nodes {
			if !yield(sel.Eq(i)) {
				return
			}
		}
	}
}
