package repository

import (
	"context"
	"time"

	"chainpilot/internal/metrics"
	"chainpilot/internal/model"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultTimeout bounds every record store round trip when the caller does
// not configure one.
const DefaultTimeout = 5 * time.Second

// Eq is an equality filter on one column.
type Eq struct {
	Column string
	Value  interface{}
}

// Order sorts by a single column.
type Order struct {
	Column string
	Desc   bool
}

// Query is the only read shape the record store accepts: equality filters,
// one ordering column and an optional row limit. No joins.
type Query struct {
	Filters []Eq
	Order   Order
	Limit   int
}

// Where returns a copy of q with an extra equality filter.
func (q Query) Where(column string, value interface{}) Query {
	filters := make([]Eq, len(q.Filters), len(q.Filters)+1)
	copy(filters, q.Filters)
	q.Filters = append(filters, Eq{Column: column, Value: value})
	return q
}

// OrderBy returns a copy of q ordered by column.
func (q Query) OrderBy(column string, desc bool) Query {
	q.Order = Order{Column: column, Desc: desc}
	return q
}

// Take returns a copy of q limited to n rows (n <= 0 means no limit).
func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

// apply translates q into GORM clauses. Column names go through clause.Column
// so they are always quoted.
func apply(db *gorm.DB, q Query) *gorm.DB {
	for _, f := range q.Filters {
		db = db.Where(clause.Eq{Column: clause.Column{Name: f.Column}, Value: f.Value})
	}
	if q.Order.Column != "" {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: q.Order.Column}, Desc: q.Order.Desc})
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	return db
}

// base carries the connection and the per-call deadline shared by every
// repository.
type base struct {
	db      *gorm.DB
	timeout time.Duration
}

func newBase(db *gorm.DB, timeout time.Duration) base {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return base{db: db, timeout: timeout}
}

// conn returns a session bound to a context that expires after the
// configured timeout.
func (b base) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	return b.db.WithContext(ctx), cancel
}

// quarantine drops rows carrying an unknown location tag instead of letting
// them reach consumers.
func quarantine[T any](table string, rows []T, tags func(T) []model.LocationType, id func(T) string) []T {
	kept := rows[:0]
	for _, r := range rows {
		ok := true
		for _, t := range tags(r) {
			if !t.Valid() {
				ok = false
				log.Warn().
					Str("table", table).
					Str("id", id(r)).
					Str("location_type", string(t)).
					Msg("repository: quarantined row with unknown location type")
				break
			}
		}
		if ok {
			kept = append(kept, r)
			continue
		}
		metrics.QuarantinedRows.WithLabelValues(table).Inc()
	}
	return kept
}
