package gamerecord

import "context"

// Source supplies the full set of completed game records available at call
// time. Implementations give no ordering guarantee; consumers must not
// depend on record order.
type Source interface {
	List(ctx context.Context) ([]Record, error)
}
