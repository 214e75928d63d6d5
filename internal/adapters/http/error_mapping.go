package httpadapter

import (
	"net/http"

	"github.com/kirillkom/evidence-search/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput), domain.IsKind(err, domain.ErrInvalidPolicy):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrRetrievalUnavailable), domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
