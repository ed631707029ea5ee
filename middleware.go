package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	constants "github.com/CodeAndHammer/eventdle/internal/constants"
	models "github.com/CodeAndHammer/eventdle/internal/models"
	util "github.com/CodeAndHammer/eventdle/internal/util"
)

const csp = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'; object-src 'none'; base-uri 'self'; form-action 'self'; frame-ancestors 'none';"

func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Security-Policy", csp)
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
		}
		c.Next()
	}
}

// corsMiddleware lets browser clients on other origins call the game API.
// An empty origin list or "*" allows every origin.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Content-Type", "X-Request-Id"},
		ExposeHeaders: []string{"X-Request-Id"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func getLimiter(app *models.App, key string) *rate.Limiter {
	app.LimiterMutex.RLock()
	entry, ok := app.LimiterMap[key]
	app.LimiterMutex.RUnlock()
	if ok {
		app.LimiterMutex.Lock()
		if entry, ok = app.LimiterMap[key]; ok {
			entry.LastAccessTime = time.Now()
		}
		app.LimiterMutex.Unlock()
		if ok {
			return entry.Limiter
		}
	}

	app.LimiterMutex.Lock()
	defer app.LimiterMutex.Unlock()
	if entry, ok = app.LimiterMap[key]; ok {
		entry.LastAccessTime = time.Now()
		return entry.Limiter
	}

	if key == "" || key == "::1" {
		util.LogWarn("Rate limiter key is empty or loopback: %q", key)
	}
	rps := app.RateLimitRPS
	if rps <= 0 {
		rps = 1
	}
	lim := rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), app.RateLimitBurst)
	app.LimiterMap[key] = &models.RateLimiterEntry{
		Limiter:        lim,
		LastAccessTime: time.Now(),
	}
	return lim
}

func rateLimitMiddleware(app *models.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if !getLimiter(app, key).Allow() {
			util.LogWarnCtx(c.Request.Context(), "Rate limit exceeded for %s", key)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": constants.ErrorCodeRateLimited})
			return
		}
		c.Next()
	}
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.Request.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(c.Request.Context(), constants.RequestIDKey, reqID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-Id", reqID)
		c.Next()
	}
}

func accessLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("request_id", util.RequestID(c.Request.Context())).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}
