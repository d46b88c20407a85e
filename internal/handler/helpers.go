package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/guru-go-api/internal/middleware"
	"github.com/noah-isme/guru-go-api/internal/repository"
	"github.com/noah-isme/guru-go-api/internal/utils"
	"github.com/noah-isme/guru-go-api/pkg/ai"
)

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := c.Params(name)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseQueryUintPtr(c *fiber.Ctx, key string) (*uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", key)
	}
	id := uint(parsed)
	return &id, nil
}

func paginationFromQuery(c *fiber.Ctx) (repository.Pagination, error) {
	skip, err := parseQueryInt(c, "skip")
	if err != nil {
		return repository.Pagination{}, errors.New("invalid skip")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return repository.Pagination{}, errors.New("invalid limit")
	}
	return repository.Pagination{Skip: skip, Limit: limit}, nil
}

func userIDStringFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_id"); v != nil {
		switch id := v.(type) {
		case uint:
			return strconv.FormatUint(uint64(id), 10)
		case int:
			if id < 0 {
				return ""
			}
			return strconv.Itoa(id)
		case string:
			return strings.TrimSpace(id)
		case fmt.Stringer:
			return strings.TrimSpace(id.String())
		}
	}
	return ""
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// aiErrorStatus maps model-layer failures onto HTTP statuses. Transport
// failures surface as 503 so clients can retry, malformed model output as 502.
func aiErrorStatus(err error) (int, string, bool) {
	switch {
	case errors.Is(err, ai.ErrUnavailable), errors.Is(err, ai.ErrTimeout):
		return fiber.StatusServiceUnavailable, "model endpoint unavailable", true
	case errors.Is(err, ai.ErrUnparseable), errors.Is(err, ai.ErrValidation), errors.Is(err, ai.ErrProtocol):
		return fiber.StatusBadGateway, "model returned an unusable response", true
	}
	return 0, "", false
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// failValidation renders field-level errors so clients can point at the
// offending inputs.
func failValidation(c *fiber.Ctx, errs validator.ValidationErrors) error {
	details := make([]fiber.Map, 0, len(errs))
	for _, field := range errs {
		details = append(details, fiber.Map{
			"field": field.Field(),
			"rule":  field.Tag(),
		})
	}
	return utils.Fail(c, fiber.StatusBadRequest, "validation failed", details)
}

func listMeta(page repository.Pagination, count int) fiber.Map {
	return fiber.Map{
		"skip":  page.Skip,
		"limit": page.Limit,
		"count": count,
	}
}
