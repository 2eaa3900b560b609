package api

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"gprspc/app"
	"gprspc/domain/core"
)

// RequireSession aborts requests whose :id is blank or names no open session
func RequireSession(service *app.SPCService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := core.ParseID(c.Param("id"))
		if err != nil {
			badRequest(c, "Invalid session id: "+err.Error())
			c.Abort()
			return
		}
		if _, err := service.Session(id); err != nil {
			log.Printf("[RequireSession] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			respondError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequestLogger logs method, path, status and latency of every request
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("[HTTP] %s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
		for _, err := range c.Errors {
			log.Printf("[HTTP] error: %v", err.Err)
		}
	}
}
