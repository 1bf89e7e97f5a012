package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/skladhub/sklad-backend/internal/model"
	"github.com/skladhub/sklad-backend/internal/realtime"
	"github.com/skladhub/sklad-backend/internal/repository"
)

type PartHandler struct {
	Repo *repository.PostgresRepo
	Hub  *realtime.Hub
}

func NewPartHandler(repo *repository.PostgresRepo, hub *realtime.Hub) *PartHandler {
	return &PartHandler{Repo: repo, Hub: hub}
}

func (h *PartHandler) List(c *gin.Context) {
	page, pageSize := pagination(c)
	search := c.Query("search")

	parts, total, err := h.Repo.ListParts(c.Request.Context(), page, pageSize, search)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, model.PaginatedResponse{
		Items: parts, Total: total, Page: page, PageSize: pageSize,
	})
}

func (h *PartHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	part, err := h.Repo.GetPart(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "part not found"})
		return
	}
	replacements, err := h.Repo.ListReplacementsByPart(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"part": part, "replacements": replacements})
}

func (h *PartHandler) Create(c *gin.Context) {
	var part model.Part
	if err := c.ShouldBindJSON(&part); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Repo.CreatePart(c.Request.Context(), &part); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.Hub.Publish(model.NewChangeEvent(model.KindPart, part.ID, model.OpCreated))
	c.JSON(http.StatusCreated, part)
}

func (h *PartHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var part model.Part
	if err := c.ShouldBindJSON(&part); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	part.ID = id
	if err := h.Repo.UpdatePart(c.Request.Context(), &part); err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "part not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.Hub.Publish(model.NewChangeEvent(model.KindPart, part.ID, model.OpUpdated))
	c.JSON(http.StatusOK, part)
}

func (h *PartHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.Repo.DeletePart(c.Request.Context(), id); err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "part not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.Hub.Publish(model.NewChangeEvent(model.KindPart, id, model.OpDeleted))
	c.Status(http.StatusNoContent)
}

// pagination reads page/page_size query params with the API defaults.
func pagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "25"))
	if err != nil || pageSize < 1 {
		pageSize = 25
	}
	if pageSize > 200 {
		pageSize = 200
	}
	return page, pageSize
}
