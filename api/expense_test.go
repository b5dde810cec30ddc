package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"familybudget/config"
	"familybudget/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func categoryRow(id uint, userID uint, name, catType string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "name", "color", "icon", "type", "created_at", "updated_at", "deleted_at"}).
		AddRow(id, userID, name, "#ef4444", "", catType, time.Now(), time.Now(), nil)
}

func TestExpenseHandler_Create(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 加载当前用户
	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs(1).
		WillReturnRows(userRow(1, "user", "x", models.RolePlain, nil, true))

	// 校验类别
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WithArgs(1, 1).
		WillReturnRows(categoryRow(1, 1, "餐饮", models.CategoryTypeExpense))

	// INSERT expense
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `expenses`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	// 预算检查：未设置预算，静默返回
	mock.ExpectQuery("SELECT .* FROM `budgets`").
		WithArgs(1, "2024-01").
		WillReturnRows(sqlmock.NewRows([]string{}))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/expenses", NewExpenseHandler(&config.Config{}).Create)

	body := `{"amount":99.99,"category_id":1,"date":"2024-01-15","note":"午餐"}`
	req := httptest.NewRequest("POST", "/expenses", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "创建成功", resp["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseHandler_Create_InvalidCategory(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs(1).
		WillReturnRows(userRow(1, "user", "x", models.RolePlain, nil, true))

	mock.ExpectQuery("SELECT .* FROM `categories`").
		WithArgs(999, 1).
		WillReturnRows(sqlmock.NewRows([]string{}))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/expenses", NewExpenseHandler(&config.Config{}).Create)

	body := `{"amount":99,"category_id":999,"date":"2024-01-15"}`
	req := httptest.NewRequest("POST", "/expenses", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "无效的类别", resp["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseHandler_Create_IncomeOnlyCategory(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs(1).
		WillReturnRows(userRow(1, "user", "x", models.RolePlain, nil, true))

	mock.ExpectQuery("SELECT .* FROM `categories`").
		WithArgs(8, 1).
		WillReturnRows(categoryRow(8, 1, "工资", models.CategoryTypeIncome))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/expenses", NewExpenseHandler(&config.Config{}).Create)

	body := `{"amount":99,"category_id":8,"date":"2024-01-15"}`
	req := httptest.NewRequest("POST", "/expenses", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "该类别仅用于收入", resp["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseHandler_List_ChildSeesFamilyData(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 当前用户是子账号
	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs(2).
		WillReturnRows(userRow(2, "kid01", "x", models.RoleChild, 1, true))

	// 解析共享集合：家长名下的子账号
	mock.ExpectQuery("SELECT `id` FROM `users`").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `expenses`").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))

	mock.ExpectQuery("SELECT .* FROM `expenses`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	router := gin.New()
	router.Use(setUserIDMiddleware(2))
	router.GET("/expenses", NewExpenseHandler(&config.Config{}).List)

	req := httptest.NewRequest("GET", "/expenses", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseHandler_List_ForeignMemberForbidden(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs(1).
		WillReturnRows(userRow(1, "user", "x", models.RolePlain, nil, true))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/expenses", NewExpenseHandler(&config.Config{}).List)

	// 共享集合外的 user_id 筛选被拒绝
	req := httptest.NewRequest("GET", "/expenses?user_id=999", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 403, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
