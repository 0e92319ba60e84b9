package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/graph-gophers/dataloader/v7"
)

// loaderContextKey is the key used to store dataloaders in context
type loaderContextKey string

const loadersKey loaderContextKey = "dataloaders"

// Loaders batches per-user lookups that otherwise fan out into one query
// per row (interest lists, match enrichment).
type Loaders struct {
	Profile *dataloader.Loader[int, *Profile]
}

// newLoaders creates fresh dataloaders bound to the database connection.
// One set per request keeps results consistent within a request without
// caching anything across requests.
func newLoaders(db *sql.DB) *Loaders {
	return &Loaders{
		Profile: dataloader.NewBatchedLoader(profileBatchFn(db), dataloader.WithWait[int, *Profile](16*time.Millisecond)),
	}
}

func loadersFromContext(ctx context.Context) *Loaders {
	if l, ok := ctx.Value(loadersKey).(*Loaders); ok {
		return l
	}
	return nil
}

func withLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, l)
}

// profileBatchFn loads a batch of profiles keyed by user id in one query.
// Missing profiles resolve to nil rather than an error.
func profileBatchFn(db *sql.DB) dataloader.BatchFunc[int, *Profile] {
	return func(ctx context.Context, keys []int) []*dataloader.Result[*Profile] {
		results := make([]*dataloader.Result[*Profile], len(keys))
		for i := range results {
			results[i] = &dataloader.Result[*Profile]{}
		}
		if len(keys) == 0 {
			return results
		}

		keyIndex := make(map[int][]int, len(keys)) // userID -> result positions
		placeholders := make([]string, len(keys))
		args := make([]interface{}, len(keys))
		for i, key := range keys {
			keyIndex[key] = append(keyIndex[key], i)
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args[i] = key
		}

		query := fmt.Sprintf(`SELECT %s FROM profiles WHERE user_id IN (%s)`,
			profileColumns, strings.Join(placeholders, ", "))

		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			for i := range results {
				results[i].Error = err
			}
			return results
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProfile(rows)
			if err != nil {
				for i := range results {
					if results[i].Data == nil && results[i].Error == nil {
						results[i].Error = err
					}
				}
				return results
			}
			for _, i := range keyIndex[p.UserID] {
				results[i].Data = p
			}
		}
		return results
	}
}
