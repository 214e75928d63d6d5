package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidPolicy = errors.New("invalid policy")

	// ErrLexicalUnsupported is returned by an adapter that declines the
	// lexical search capability. The retriever treats it as an absent
	// source, not a failure.
	ErrLexicalUnsupported = errors.New("lexical search unsupported")

	// ErrRetrievalUnavailable means both retrieval sources failed within a
	// single call; no degraded result could be assembled.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	ErrTemporary = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
