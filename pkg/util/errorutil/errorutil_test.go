package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainErrorKeepsDomainErrors(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewForbidden("nope"))
	de := ToDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, "FORBIDDEN", de.Code)
	assert.Equal(t, http.StatusForbidden, de.HTTPStatus)
}

func TestToDomainErrorMapsNoRows(t *testing.T) {
	de := ToDomainError(fmt.Errorf("get ticket: %w", pgx.ErrNoRows))
	assert.Equal(t, "NOT_FOUND", de.Code)
	assert.Equal(t, http.StatusNotFound, de.HTTPStatus)
}

func TestToDomainErrorMapsUniqueViolation(t *testing.T) {
	de := ToDomainError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	assert.Equal(t, "CONFLICT", de.Code)
	assert.Equal(t, http.StatusConflict, de.HTTPStatus)
}

func TestToDomainErrorMapsFiberErrors(t *testing.T) {
	de := ToDomainError(fiber.NewError(http.StatusMethodNotAllowed, "method not allowed"))
	assert.Equal(t, "METHOD_NOT_ALLOWED", de.Code)
	assert.Equal(t, http.StatusMethodNotAllowed, de.HTTPStatus)
}

func TestToDomainErrorFallsBackToInternal(t *testing.T) {
	cause := errors.New("boom")
	de := ToDomainError(cause)
	assert.Equal(t, "INTERNAL_ERROR", de.Code)
	assert.ErrorIs(t, de, cause)
	assert.Nil(t, ToDomainError(nil))
}

func TestFromValidationCollectsFields(t *testing.T) {
	type payload struct {
		Email string `validate:"required,email"`
		Title string `validate:"max=3"`
	}
	err := validator.New().Struct(payload{Title: "toolong"})
	require.Error(t, err)

	de := ToDomainError(FromValidation(err))
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Equal(t, "required", de.Details["email"])
	assert.Equal(t, "max=3", de.Details["title"])
}

func TestMapErrorKeepsNil(t *testing.T) {
	assert.NoError(t, MapError(nil))
	assert.Nil(t, ToDomainError(nil))
}
