package expense

import "errors"

var (
	ErrExpenseNotFound = errors.New("operational expense not found")
)
