package router

import (
	"time"

	"familybudget/api"
	"familybudget/config"
	_ "familybudget/docs"
	"familybudget/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config) *gin.Engine {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.Default()

	// CORS 中间件
	r.Use(CORSMiddleware())

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 路由组
	v1 := r.Group("/api/v1")
	{
		// 认证相关路由（无需登录）
		authHandler := api.NewAuthHandler(cfg)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			// 登录接口限流：同一 IP 每分钟最多 10 次
			auth.POST("/login", middleware.LoginRateLimit(10, time.Minute), authHandler.Login)
		}

		// 需要 JWT 认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			// 用户相关
			authorized.GET("/auth/profile", authHandler.GetProfile)
			authorized.PUT("/auth/profile", authHandler.UpdateProfile)
			authorized.PUT("/auth/password", authHandler.ChangePassword)

			// 类别相关
			categoryHandler := api.NewCategoryHandler()
			categories := authorized.Group("/categories")
			{
				categories.GET("", categoryHandler.List)
				categories.POST("", categoryHandler.Create)
				categories.PUT("/:id", categoryHandler.Update)
				categories.DELETE("/:id", categoryHandler.Delete)
			}

			// 支出相关
			expenseHandler := api.NewExpenseHandler(cfg)
			expenses := authorized.Group("/expenses")
			{
				expenses.POST("", expenseHandler.Create)
				expenses.GET("", expenseHandler.List)
				expenses.GET("/:id", expenseHandler.Get)
				expenses.PUT("/:id", expenseHandler.Update)
				expenses.DELETE("/:id", expenseHandler.Delete)
			}

			// 收入相关
			incomeHandler := api.NewIncomeHandler()
			incomes := authorized.Group("/incomes")
			{
				incomes.POST("", incomeHandler.Create)
				incomes.GET("", incomeHandler.List)
				incomes.GET("/:id", incomeHandler.Get)
				incomes.PUT("/:id", incomeHandler.Update)
				incomes.DELETE("/:id", incomeHandler.Delete)
			}

			// 预算相关
			budgetHandler := api.NewBudgetHandler()
			budgets := authorized.Group("/budgets")
			{
				budgets.POST("", budgetHandler.Set)
				budgets.GET("", budgetHandler.List)
				budgets.GET("/status", budgetHandler.Status)
				budgets.DELETE("/:month", budgetHandler.Delete)
			}

			// 家庭子账号管理
			familyHandler := api.NewFamilyHandler()
			family := authorized.Group("/family")
			{
				// 创建子账号对普通账号开放（首次创建后升级为家长）
				family.POST("/children", familyHandler.CreateChild)

				// 其余管理接口仅家长可用
				parentOnly := family.Group("")
				parentOnly.Use(middleware.ParentRequired())
				{
					parentOnly.GET("/children", familyHandler.ListChildren)
					parentOnly.PUT("/children/:id", familyHandler.UpdateChild)
					parentOnly.PUT("/children/:id/deactivate", familyHandler.DeactivateChild)
					parentOnly.PUT("/children/:id/reactivate", familyHandler.ReactivateChild)
					parentOnly.GET("/statistics", familyHandler.MemberStatistics)
				}
			}

			// 家庭组相关
			groupHandler := api.NewFamilyGroupHandler()
			groups := authorized.Group("/family-groups")
			{
				groups.POST("", groupHandler.Create)
				groups.POST("/join", groupHandler.Join)
				groups.GET("/mine", groupHandler.Show)
				groups.PUT("/mine", groupHandler.Update)
				groups.DELETE("/mine", groupHandler.Delete)
				groups.POST("/leave", groupHandler.Leave)
				groups.DELETE("/members/:id", groupHandler.RemoveMember)
				groups.PUT("/members/:id/role", groupHandler.UpdateMemberRole)
				groups.POST("/invite-code", groupHandler.RegenerateInviteCode)
				groups.POST("/transfer", groupHandler.TransferOwnership)
				groups.GET("/statistics", groupHandler.Statistics)
			}

			// 统计分析
			analyticsHandler := api.NewAnalyticsHandler()
			analytics := authorized.Group("/analytics")
			{
				analytics.GET("/dashboard", analyticsHandler.Dashboard)
				analytics.GET("/trend", analyticsHandler.MonthlyTrend)
				analytics.GET("/categories", analyticsHandler.CategoryBreakdown)
				analytics.GET("/budget-vs-actual", analyticsHandler.BudgetVsActual)
				analytics.GET("/income-vs-expense", analyticsHandler.IncomeVsExpense)
				analytics.GET("/savings-rate", analyticsHandler.SavingsRate)
			}

			// 导出相关
			exportHandler := api.NewExportHandler()
			export := authorized.Group("/export")
			{
				export.GET("/csv", exportHandler.ExportCSV)
				export.GET("/json", exportHandler.ExportJSON)
				export.GET("/excel", exportHandler.ExportExcel)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	return r
}

// CORSMiddleware CORS 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
