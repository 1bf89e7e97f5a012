package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skladhub/sklad-backend/internal/repository"
)

type SettingsHandler struct {
	Repo *repository.PostgresRepo
}

func NewSettingsHandler(repo *repository.PostgresRepo) *SettingsHandler {
	return &SettingsHandler{Repo: repo}
}

func (h *SettingsHandler) List(c *gin.Context) {
	settings, err := h.Repo.ListSettings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *SettingsHandler) Get(c *gin.Context) {
	key := c.Param("key")
	value, err := h.Repo.GetSetting(c.Request.Context(), key)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "setting not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

type settingRequest struct {
	Value string `json:"value" binding:"required"`
}

func (h *SettingsHandler) Put(c *gin.Context) {
	key := c.Param("key")
	var req settingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Repo.SetSetting(c.Request.Context(), key, req.Value); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": req.Value})
}
