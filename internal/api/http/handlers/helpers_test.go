package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func TestPaginationBounds(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		de := apperrors.ToDomainError(err)
		return c.Status(de.HTTPStatus).SendString(de.Code)
	}})
	app.Get("/", func(c *fiber.Ctx) error {
		limit, offset, err := pagination(c, 20)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"limit": limit, "offset": offset})
	})

	cases := []struct {
		query  string
		status int
		limit  int
		offset int
	}{
		{"", fiber.StatusOK, 20, 0},
		{"?page=3&page_size=10", fiber.StatusOK, 10, 20},
		{"?page_size=5000", fiber.StatusOK, maxPageSize, 0},
		{"?page=2&page_size=9223372036854775807", fiber.StatusOK, maxPageSize, maxPageSize},
		{"?page=-4", fiber.StatusOK, 20, 0},
		{"?page=9223372036854775807&page_size=100", fiber.StatusBadRequest, 0, 0},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/"+tc.query, nil), -1)
		require.NoError(t, err, tc.query)
		require.Equal(t, tc.status, resp.StatusCode, tc.query)
		if tc.status != fiber.StatusOK {
			_ = resp.Body.Close()
			continue
		}
		var got map[string]int
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got), tc.query)
		_ = resp.Body.Close()
		assert.Equal(t, tc.limit, got["limit"], tc.query)
		assert.Equal(t, tc.offset, got["offset"], tc.query)
	}
}
