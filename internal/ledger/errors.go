package ledger

import "errors"

// ErrExpenseNotFound is returned by UpdateExpense when no stored expense
// matches the requested id.
var ErrExpenseNotFound = errors.New("expense not found")
