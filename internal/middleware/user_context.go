package middleware

import (
	"buildops/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// InjectUser кладёт пользователя из сессии в контекст как "CurrentUser".
func InjectUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)

		if uid, ok := sess.Get("user_id").(uint); ok && uid > 0 {
			var user models.User
			if err := db.First(&user, uid).Error; err == nil {
				c.Set("CurrentUser", user)
			}
		}

		c.Next()
	}
}
