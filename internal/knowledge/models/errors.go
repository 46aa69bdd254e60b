package models

import "errors"

var (
	ErrInvalidCollection = errors.New("collection is required")
	ErrInvalidTitle      = errors.New("title is required")
	ErrInvalidContent    = errors.New("content is required")
	ErrDocumentNotFound  = errors.New("document not found")
)
