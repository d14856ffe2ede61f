package core

import "errors"

var (
	ErrChatNotFound     = errors.New("chat not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidRole      = errors.New("role must be \"user\" or \"assistant\"")
	ErrEmptyContent     = errors.New("content cannot be empty")
)
