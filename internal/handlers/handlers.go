package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CodeAndHammer/eventdle/internal/codec"
	constants "github.com/CodeAndHammer/eventdle/internal/constants"
	game "github.com/CodeAndHammer/eventdle/internal/game"
	models "github.com/CodeAndHammer/eventdle/internal/models"
	util "github.com/CodeAndHammer/eventdle/internal/util"
)

func HomeHandler(app *models.App, c *gin.Context) {
	index := filepath.Join(app.StaticDir, "index.html")
	if !util.FileExists(index) {
		c.JSON(http.StatusOK, gin.H{
			"service":   "eventdle",
			"endpoints": []string{"GET " + constants.RouteGetEvent, "POST " + constants.RouteCheck, "GET " + constants.RouteHealthz},
		})
		return
	}
	c.File(index)
}

func GetEventHandler(app *models.App, c *gin.Context) {
	ctx := c.Request.Context()
	res, err := game.StartGame(app, ctx)
	if err != nil {
		util.LogWarnCtx(ctx, "Failed to start game: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": constants.ErrorCodeNoEvents})
		return
	}
	c.JSON(http.StatusOK, res)
}

func CheckHandler(app *models.App, c *gin.Context) {
	ctx := c.Request.Context()

	var req models.CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.LogWarnCtx(ctx, "Invalid check request: %v", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": constants.ErrorCodeInvalidRequest})
		return
	}

	result, err := game.CheckGuess(app, ctx, req.Hash, req.Event)
	if err != nil {
		if errors.Is(err, codec.ErrMalformedToken) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": constants.ErrorCodeMalformedToken})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func HealthzHandler(app *models.App, c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(app.StartTime)

	app.LimiterMutex.RLock()
	limiterCount := len(app.LimiterMap)
	app.LimiterMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"env":              map[bool]string{true: "production", false: "development"}[app.IsProduction],
		"questions_loaded": app.Catalog.QuestionCount(),
		"events_loaded":    app.Catalog.EventCount(),
		"active_limiters":  limiterCount,
		"memory_alloc_mb":  m.Alloc / 1024 / 1024,
		"memory_sys_mb":    m.Sys / 1024 / 1024,
		"memory_gc_count":  m.NumGC,
		"uptime":           util.FormatUptime(uptime),
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
	})
}
