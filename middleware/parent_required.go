package middleware

import (
	"net/http"

	"familybudget/database"
	"familybudget/models"

	"github.com/gin-gonic/gin"
)

// ParentRequired 家长权限校验中间件
// 需在 JWTAuth 之后使用。子账号管理等接口仅家长账号可访问。
func ParentRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetCurrentUserID(c)
		if userID == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "请先登录"})
			c.Abort()
			return
		}

		var user models.User
		if err := database.DB.First(&user, userID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "用户不存在"})
			c.Abort()
			return
		}

		if !user.IsParent() {
			c.JSON(http.StatusForbidden, gin.H{"code": 403, "message": "仅家长账号可执行此操作"})
			c.Abort()
			return
		}

		c.Set("currentUser", &user)
		c.Next()
	}
}
