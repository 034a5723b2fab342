package store

import "github.com/qinolabs/qino/internal/ops"

// Verify *Store satisfies the Ops boundary at compile time.
var _ ops.Ops = (*Store)(nil)
