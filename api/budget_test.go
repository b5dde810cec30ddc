package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"familybudget/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetHandler_Set(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs(1).
		WillReturnRows(userRow(1, "user", "x", models.RolePlain, nil, true))

	// upsert：同月重复设置会覆盖
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `budgets`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/budgets", NewBudgetHandler().Set)

	body := `{"month":"2024-01","monthly_limit":1000.00}`
	req := httptest.NewRequest("POST", "/budgets", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "设置成功", resp["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBudgetHandler_Set_InvalidMonth(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs(1).
		WillReturnRows(userRow(1, "user", "x", models.RolePlain, nil, true))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/budgets", NewBudgetHandler().Set)

	body := `{"month":"2024-13","monthly_limit":1000.00}`
	req := httptest.NewRequest("POST", "/budgets", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBudgetHandler_Status(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs(1).
		WillReturnRows(userRow(1, "user", "x", models.RolePlain, nil, true))

	mock.ExpectQuery("SELECT .* FROM `budgets`").
		WithArgs(1, "2024-01").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "month", "monthly_limit", "currency", "created_at", "updated_at"}).
			AddRow(1, 1, "2024-01", 1000.00, "NPR", time.Now(), time.Now()))

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM `expenses`").
		WillReturnRows(sqlmock.NewRows([]string{"COALESCE(SUM(amount), 0)"}).AddRow(750.00))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/budgets/status", NewBudgetHandler().Status)

	req := httptest.NewRequest("GET", "/budgets/status?month=2024-01", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	status := data["status"].(map[string]interface{})
	assert.Equal(t, 750.00, status["spent"])
	assert.Equal(t, 250.00, status["remaining"])
	assert.Equal(t, 75.00, status["usage_percentage"])
	assert.Equal(t, "warning", status["status"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBudgetHandler_Status_NoBudget(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs(1).
		WillReturnRows(userRow(1, "user", "x", models.RolePlain, nil, true))

	// 未设置预算不是错误
	mock.ExpectQuery("SELECT .* FROM `budgets`").
		WithArgs(1, "2024-01").
		WillReturnRows(sqlmock.NewRows([]string{}))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/budgets/status", NewBudgetHandler().Status)

	req := httptest.NewRequest("GET", "/budgets/status?month=2024-01", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Nil(t, data["budget"])
	assert.Nil(t, data["status"])
	require.NoError(t, mock.ExpectationsWereMet())
}
