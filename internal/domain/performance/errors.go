package performance

import "errors"

var (
	ErrInvalidOwnership = errors.New("invalid ownership, expected sales_agent or customer_assignment")
	ErrInvalidPeriod    = errors.New("invalid report period")
	ErrTargetNotFound   = errors.New("yearly target not found")
)
