package agent

import "errors"

var (
	ErrAgentNotFound = errors.New("sales agent not found")
)
