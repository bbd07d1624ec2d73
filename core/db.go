package core

import (
	"context"
	"strings"
)

// Transactor runs fn inside a single storage transaction.
// Repositories called with the ctx passed to fn take part in that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// ParseOrdering parses "field,-other" into orderings, keeping only the allowed fields.
func ParseOrdering(s string, allowed ...string) []DBOrdering {
	var ords []DBOrdering
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" || !StringInSlice(field, allowed) {
			continue
		}
		ords = append(ords, DBOrdering{Field: field, Ascending: !descending})
	}
	return ords
}
