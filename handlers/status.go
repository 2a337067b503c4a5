package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "智能旅行规划助手API v1.0",
		"status":    "running",
		"info_url":  "/api/info",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   serviceName,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   version,
	})
}

type upstreamInfo struct {
	Name     string `json:"name"`
	Purpose  string `json:"purpose"`
	Provider string `json:"provider"`
}

func (h *Handler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "智能旅行规划助手API",
		"version":     version,
		"description": "整合多个Web API的旅行规划服务",
		"integrated_apis": []upstreamInfo{
			{Name: "天气API", Purpose: "获取目的地天气预报", Provider: "聚合数据"},
			{Name: "景点API", Purpose: "获取景点信息和地理数据", Provider: "聚合数据"},
			{Name: "航班信息", Purpose: "查询航班时刻和价格", Provider: "本地模拟数据"},
			{Name: "大模型API", Purpose: "生成智能旅行规划", Provider: "OpenAI兼容接口"},
		},
		"endpoints": []string{
			"POST /api/generate_plan - 生成旅行规划",
			"POST /api/generate_plan/pdf - 生成旅行规划PDF",
			"GET /api/test/weather/:city - 测试天气API",
			"GET /api/test/attractions/:city - 测试景点API",
			"GET /api/test/flights?from=&to=&date= - 测试航班查询",
			"GET /health - 健康检查",
			"GET /metrics - Prometheus指标",
		},
	})
}
