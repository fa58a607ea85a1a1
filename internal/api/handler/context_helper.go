package handler

import "github.com/gin-gonic/gin"

// GetOperator 从 Gin 上下文中提取操作员身份。
// 身份由 Operator 中间件注入，未携带时返回空串，由 Service 层照常记录。
func GetOperator(c *gin.Context) (string, string) {
	return c.GetString("operator_id"), c.GetString("operator_name")
}
