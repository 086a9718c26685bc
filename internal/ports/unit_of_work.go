package ports

import "context"

// Tx is an opaque transaction handle carried in context.
// The persistence adapter decides the concrete type (*gorm.DB today).
type Tx interface{}

// UnitOfWork scopes the writes of one scan: the package row and its report
// are committed together or not at all. fn returning an error rolls back.
type UnitOfWork interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

func WithTxContext(ctx context.Context, tx Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns nil outside a unit of work.
func TxFromContext(ctx context.Context) Tx {
	return ctx.Value(txKey{})
}
