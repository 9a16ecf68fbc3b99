package task

import (
	"errors"
	"strings"
)

var (
	// ErrTitleRequired is returned when a task title is empty.
	ErrTitleRequired = errors.New("task title is required")
	// ErrInvalidPriority is returned for priorities outside high/medium/low.
	ErrInvalidPriority = errors.New("priority must be high, medium, or low")
	// ErrInvalidStatus is returned for statuses outside todo/in-progress/done.
	ErrInvalidStatus = errors.New("status must be todo, in-progress, or done")
	// ErrCommentRequired is returned when a comment body is empty.
	ErrCommentRequired = errors.New("comment text is required")
)

// NormalizePriority folds the spellings of "no priority" into the empty
// string. "" and "none" both mean absent.
func NormalizePriority(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "none" {
		return ""
	}
	return p
}

// ValidPriority reports whether a normalized priority is allowed.
func ValidPriority(p string) bool {
	switch p {
	case "", PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// NormalizeStatus lowercases and trims a status value. An empty status means
// the caller wants the default.
func NormalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidStatus reports whether a normalized status is allowed.
func ValidStatus(s string) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}
