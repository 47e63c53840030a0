package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := c.Param(param)
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return idStr
}

func parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseBoolQuery(c *gin.Context, param string) bool {
	value, err := strconv.ParseBool(c.Query(param))
	return err == nil && value
}

// currentUser reads what AuthMiddleware stored; it aborts with 401 when missing.
func currentUser(c *gin.Context) (userID, token string, ok bool) {
	userID = userIDFrom(c)
	token = c.GetString(tokenKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return "", "", false
	}
	return userID, token, true
}

func userIDFrom(c *gin.Context) string {
	return c.GetString(userIDKey)
}
