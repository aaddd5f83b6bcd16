package watch

import "github.com/pkg/errors"

var errRetryBudgetExhausted = errors.New("watch retry budget exhausted")
