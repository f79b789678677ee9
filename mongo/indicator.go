// Package mongo provides a MongoDB-backed work indicator for stoker
// workers: documents whose due time has passed count as pending work.
//
// Unlike the redis and postgres notifiers, there is no push channel
// here; the indicator is meant for interval-driven workers (NewTimed)
// that poll the collection on each wake.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/petrijr/stoker/pkg/api"
)

// DueConfig carries optional settings for a DueIndicator.
type DueConfig struct {
	// Timeout bounds each indicator query. The indicator's Check runs
	// under the worker's state lock, so the bound also caps how long a
	// concurrent Cancel can be delayed by one check. Defaults to one
	// second.
	Timeout time.Duration

	// Logger receives query errors, which read as "no work pending".
	// If nil, slog.Default() is used.
	Logger *slog.Logger
}

// DueIndicator reports whether a collection holds documents whose due
// time has passed. The due field must hold a BSON datetime; an index on
// it keeps the check cheap.
type DueIndicator struct {
	coll     *mongo.Collection
	dueField string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewDueIndicator returns an indicator over coll keyed on dueField.
func NewDueIndicator(coll *mongo.Collection, dueField string) *DueIndicator {
	return NewDueIndicatorWithConfig(coll, dueField, DueConfig{})
}

// NewDueIndicatorWithConfig is NewDueIndicator with explicit
// configuration.
func NewDueIndicatorWithConfig(coll *mongo.Collection, dueField string, cfg DueConfig) *DueIndicator {
	if coll == nil {
		panic("stoker/mongo: nil collection")
	}
	if dueField == "" {
		panic("stoker/mongo: empty due field")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &DueIndicator{
		coll:     coll,
		dueField: dueField,
		timeout:  timeout,
		logger:   logger,
	}
}

// Check is a CheckFunc reporting whether at least one document is due.
// It performs a single bounded count (limit 1) against the collection;
// query errors are logged and read as "no work", to be retried on the
// next wake. Pass it to stoker.NewTimed:
//
//	ind := mongo.NewDueIndicator(coll, "due_at")
//	w := stoker.NewTimed(ind.Check, work, nil, 30*time.Second)
func (i *DueIndicator) Check(_ any, h api.Handle) bool {
	ctx, cancel := context.WithTimeout(context.Background(), i.timeout)
	defer cancel()

	n, err := i.coll.CountDocuments(ctx,
		bson.M{i.dueField: bson.M{"$lte": time.Now()}},
		options.Count().SetLimit(1),
	)
	if err != nil {
		i.logger.Error("due_check_failed",
			slog.String("worker", h.Name()),
			slog.String("collection", i.coll.Name()),
			slog.Any("error", err),
		)
		return false
	}
	return n > 0
}

// DeleteDue removes every document that is due and returns how many were
// deleted. It is the natural body of the paired work function for
// retention-style workers.
func (i *DueIndicator) DeleteDue(ctx context.Context) (int64, error) {
	res, err := i.coll.DeleteMany(ctx, bson.M{i.dueField: bson.M{"$lte": time.Now()}})
	if err != nil {
		return 0, fmt.Errorf("stoker/mongo: deleting due documents from %s: %w", i.coll.Name(), err)
	}
	return res.DeletedCount, nil
}
