package models

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrMemberNotFound    = errors.New("member not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("reminder was modified concurrently")
	ErrScheduledInPast   = errors.New("scheduled time is too far in the past")
	ErrDispatchFailure   = errors.New("reminder dispatch failed")
	ErrInvalidInput      = errors.New("invalid input")
)
