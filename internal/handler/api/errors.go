package api

import (
	"errors"
	"time"

	"BrentPulse/internal/domain/models"
	xhttp "BrentPulse/pkg/http"
	"BrentPulse/pkg/util"
)

// toAppError maps domain errors onto transport errors.
func toAppError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, models.ErrInvalidParameter):
		return xhttp.InvalidParameterError("", err.Error()).WithError(err)
	case errors.Is(err, models.ErrData):
		return xhttp.UnprocessableError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrForecastUnavailable):
		return xhttp.ServiceUnavailableError(xhttp.CodeForecastUnavailable, err.Error()).WithError(err)
	case errors.Is(err, models.ErrNotReady):
		return xhttp.ServiceUnavailableError(xhttp.CodeNotReady, "price data is not loaded yet").WithError(err)
	case errors.Is(err, models.ErrNotFound):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}

// dateParam parses a query date already checked by the "date" rule.
func dateParam(s string) time.Time {
	t, _ := util.ParseTime(s)
	return t
}
