// Package tx is the transaction boundary a service opens when one change
// touches more than one store.
package tx

import "context"

type Manager interface {
	Within(ctx context.Context, fn func(context.Context) error) error
}

// Func adapts a plain function to Manager.
type Func func(ctx context.Context, fn func(context.Context) error) error

func (f Func) Within(ctx context.Context, fn func(context.Context) error) error {
	return f(ctx, fn)
}

// None runs fn directly against whatever connection the stores hold.
var None Manager = Func(func(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
})
