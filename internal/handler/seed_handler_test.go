package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/guru-go-api/internal/models"
)

func TestSeedHandlerRequiresToken(t *testing.T) {
	env := setupApp(t, &stubAssistant{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/seed", nil)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestSeedHandlerCreatesDemoData(t *testing.T) {
	env := setupApp(t, &stubAssistant{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/seed", nil)
	req.Header.Set("X-Seed-Token", "test-token")
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var students, courses int64
	require.NoError(t, env.db.Model(&models.Student{}).Count(&students).Error)
	require.NoError(t, env.db.Model(&models.Course{}).Count(&courses).Error)
	require.Equal(t, int64(3), students)
	require.Equal(t, int64(3), courses)
}
