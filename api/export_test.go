package api

import (
	"net/http/httptest"
	"strings"
	"testing"

	"familybudget/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportHandler_ExportCSV_MissingRange(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs(1).
		WillReturnRows(userRow(1, "user", "x", models.RolePlain, nil, true))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/export/csv", NewExportHandler().ExportCSV)

	req := httptest.NewRequest("GET", "/export/csv", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportHandler_ExportCSV(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs(1).
		WillReturnRows(userRow(1, "user", "x", models.RolePlain, nil, true))

	mock.ExpectQuery("SELECT expenses\\..*, users\\.username, categories\\.name AS category_name FROM `expenses`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "amount", "currency", "note", "username", "category_name"}).
			AddRow(1, 1, 99.99, "NPR", "午餐", "user", "餐饮"))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/export/csv", NewExportHandler().ExportCSV)

	req := httptest.NewRequest("GET", "/export/csv?start_date=2024-01-01&end_date=2024-01-31", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")

	// BOM + 表头
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "\xEF\xBB\xBF"))
	assert.Contains(t, body, "成员")
	assert.Contains(t, body, "99.99")
	require.NoError(t, mock.ExpectationsWereMet())
}
