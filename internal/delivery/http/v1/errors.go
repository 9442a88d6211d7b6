package v1

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"worksite/internal/services"
)

// ListingPath is where every mutating action lands after completion.
const ListingPath = "/api/v1/tasks"

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newAPIError(code int, message string) apiError {
	return apiError{
		Code:    code,
		Message: message,
	}
}

func (e apiError) Error() string {
	return e.Message
}

func abort(c *gin.Context, err apiError) {
	c.AbortWithStatusJSON(err.Code, gin.H{"error": err.Message})
}

func newStatusTextError(status int) apiError {
	return newAPIError(status, http.StatusText(status))
}

func newUnauthorizedError(message string) apiError {
	return newAPIError(http.StatusUnauthorized, message)
}

func newForbiddenError(message string) apiError {
	return newAPIError(http.StatusForbidden, message)
}

// userVisibleErrors are surfaced verbatim in the redirect message;
// anything else collapses to a generic message.
var userVisibleErrors = []error{
	services.ErrPermissionDenied,
	services.ErrInvalidTaskID,
	services.ErrTaskNotFound,
	services.ErrMissingRequiredField,
	services.ErrInvalidTaskDate,
	services.ErrMissingResultDescription,
	services.ErrInvalidDecision,
	services.ErrTaskNotDeletable,
	services.ErrDeleteFailed,
}

func userMessage(err error) string {
	for _, known := range userVisibleErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "internal error"
}

// redirectTo sends the caller back to the listing with the given query
// string.
func redirectTo(c *gin.Context, query string) {
	c.Redirect(http.StatusSeeOther, ListingPath+"?"+query)
}

// redirectError converts any action failure into the single
// redirect-with-message contract.
func redirectError(c *gin.Context, err error) {
	q := url.Values{}
	q.Set("err", userMessage(err))
	redirectTo(c, q.Encode())
}
