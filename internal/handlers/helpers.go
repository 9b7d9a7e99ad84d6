package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Единый конверт ответов: {"success":true,"data":...} / {"success":false,"error":...}.
// Клиентский нормализатор завязан на это поле success.
func respondData(c *gin.Context, code int, data any) {
	c.JSON(code, gin.H{"success": true, "data": data})
}

func respondError(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"success": false, "error": msg})
}

// более устойчиво к типам (int / int64 / float64 / string)
func getIntFromCtx(c *gin.Context, key string) (int, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n, true
		}
	}
	return 0, false
}

func getUserAndRole(c *gin.Context) (userID int, role string) {
	if id, ok := getIntFromCtx(c, "user_id"); ok {
		userID = id
	}
	if v, ok := c.Get("role"); ok {
		role, _ = v.(string)
	}
	return
}

// team_members.id из клеймов токена; 0 = аккаунт без карточки агента
func getMemberID(c *gin.Context) int {
	id, _ := getIntFromCtx(c, "member_id")
	return id
}

func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		respondError(c, 400, "invalid id")
		return 0, false
	}
	return id, true
}
