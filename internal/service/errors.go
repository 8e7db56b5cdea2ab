package service

import (
	"errors"
	"fmt"

	"github.com/openrecords/foiad/internal/model"
)

// Platform error classes. Transient failures may be retried by the caller
// with backoff; rejections are permanent and surfaced verbatim.
var (
	ErrTransientNetwork   = errors.New("transient platform error")
	ErrSubmissionRejected = errors.New("submission rejected by platform")
	ErrNotFound           = errors.New("not found on platform")
)

// InvalidTransitionError reports an illegal status change. It always
// indicates caller misuse, never a retriable condition.
type InvalidTransitionError struct {
	RequestID int
	From      model.Status
	To        model.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s for request %d", e.From, e.To, e.RequestID)
}
