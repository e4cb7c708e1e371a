package domain

import "context"

// Filter matches rows by column equality. Every key must match.
type Filter map[string]any

// Store is the table storage the ledger reads and writes through. dest for
// Select is a pointer to a slice of the table's row type.
type Store interface {
	Select(ctx context.Context, table string, filter Filter, dest any) error
	Insert(ctx context.Context, table string, row any) error
	Update(ctx context.Context, table string, filter Filter, patch map[string]any) error
	Delete(ctx context.Context, table string, filter Filter) error
}

// Transactor is implemented by stores that can run several writes as one
// unit. The Store passed to fn is bound to the transaction; returning an
// error from fn rolls every write back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(Store) error) error
}
