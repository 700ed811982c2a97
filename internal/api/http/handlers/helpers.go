package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func identity(c *fiber.Ctx) (domain.Identity, error) {
	id, ok := auth.IdentityFromContext(c)
	if !ok {
		return domain.Identity{}, apperrors.NewUnauthorized("authentication required")
	}
	return id, nil
}

// bind parses the JSON body into req and runs tag validation.
func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return dto.Validate(req)
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid id", map[string]any{name: "numeric"})
	}
	return id, nil
}

func queryID(c *fiber.Ctx, name string) (*int64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperrors.NewValidationError("invalid query parameter", map[string]any{name: "numeric"})
	}
	return &id, nil
}

func queryList(c *fiber.Ctx, name string) []string {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

const (
	maxPageSize = 100
	maxPage     = 10000
)

// pagination reads page/page_size into limit and offset. page_size is
// capped at maxPageSize; pages past maxPage are rejected.
func pagination(c *fiber.Ctx, defaultSize int) (int, int, error) {
	page := parseInt(c.Query("page"), 1)
	if page > maxPage {
		return 0, 0, apperrors.NewValidationError("page out of range", map[string]any{"page": "max"})
	}
	pageSize := parseInt(c.Query("page_size"), defaultSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return pageSize, (page - 1) * pageSize, nil
}

func settingsResponse(theme domain.Theme, updatedAt time.Time) dto.SettingsResponse {
	resp := dto.SettingsResponse{Theme: theme}
	if !updatedAt.IsZero() {
		resp.UpdatedAt = &updatedAt
	}
	return resp
}
