package handlers

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skladhub/sklad-backend/internal/repository"
)

type KnifeHandler struct {
	Repo *repository.PostgresRepo
}

func NewKnifeHandler(repo *repository.PostgresRepo) *KnifeHandler {
	return &KnifeHandler{Repo: repo}
}

func (h *KnifeHandler) List(c *gin.Context) {
	knives, err := h.Repo.ListKnives(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, knives)
}

type sharpenRequest struct {
	Date    string  `json:"date"`
	Comment *string `json:"comment,omitempty"`
}

func (h *KnifeHandler) Sharpen(c *gin.Context) {
	partID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req sharpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date := time.Now()
	if req.Date != "" {
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
			return
		}
	}

	entry, err := h.Repo.SharpenKnife(c.Request.Context(), partID, date, req.Comment)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "knife not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *KnifeHandler) SharpenLog(c *gin.Context) {
	partID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	log, err := h.Repo.ListSharpenLog(c.Request.Context(), partID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, log)
}
