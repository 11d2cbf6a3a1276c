package roundup

import "errors"

var ErrInvalidAmount = errors.New("amount must be a non-negative number with at most two decimals")
