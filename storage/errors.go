package storage

import "errors"

var ErrNotFound = errors.New("item not found in storage")
var ErrContestantAlreadyExists = errors.New("contestant already exists")
var ErrTransactionAlreadyExists = errors.New("vote transaction already exists")
var ErrTransactionAlreadySettled = errors.New("vote transaction already settled")
var ErrBoostAlreadyApplied = errors.New("vote boost already applied")
