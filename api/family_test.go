package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"familybudget/middleware"
	"familybudget/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFamilyHandler_CreateChild_UpgradesToParent(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 当前用户是普通账号
	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs(1).
		WillReturnRows(userRow(1, "user", "x", models.RolePlain, nil, true))

	// 检查用户名不存在
	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs("kid01").
		WillReturnRows(sqlmock.NewRows([]string{}))

	// 创建子账号
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `users`").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	// 升级为家长
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `users`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/family/children", NewFamilyHandler().CreateChild)

	body := `{"username":"kid01","password":"password123"}`
	req := httptest.NewRequest("POST", "/family/children", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "创建成功", resp["message"])
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, models.RoleChild, data["role"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFamilyHandler_CreateChild_ChildForbidden(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 子账号不能再创建子账号
	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs(2).
		WillReturnRows(userRow(2, "kid01", "x", models.RoleChild, 1, true))

	router := gin.New()
	router.Use(setUserIDMiddleware(2))
	router.POST("/family/children", NewFamilyHandler().CreateChild)

	body := `{"username":"kid02","password":"password123"}`
	req := httptest.NewRequest("POST", "/family/children", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 403, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFamilyHandler_ListChildren_ParentOnly(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 普通账号被家长权限中间件拦截
	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs(1).
		WillReturnRows(userRow(1, "user", "x", models.RolePlain, nil, true))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/family/children", middleware.ParentRequired(), NewFamilyHandler().ListChildren)

	req := httptest.NewRequest("GET", "/family/children", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 403, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFamilyHandler_ListChildren(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs(1).
		WillReturnRows(userRow(1, "parent", "x", models.RoleParent, nil, true))

	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs(1).
		WillReturnRows(userRow(2, "kid01", "x", models.RoleChild, 1, true))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/family/children", middleware.ParentRequired(), NewFamilyHandler().ListChildren)

	req := httptest.NewRequest("GET", "/family/children", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	list := resp["data"].([]interface{})
	assert.Len(t, list, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
