package app

import "errors"

var (
	ErrDayTaken        = errors.New("another meal is already planned for that day")
	ErrLLMDisabled     = errors.New("recipe extraction is not configured")
	ErrGhostDisabled   = errors.New("ghost is not configured")
	ErrBackupsDisabled = errors.New("backups are not configured")
)
