package entity

import "context"

// TermSource lists distinct keyword values of an indexed field.
type TermSource interface {
	Terms(ctx context.Context, field string, size int) ([]string, error)
}
