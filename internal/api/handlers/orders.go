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

type OrderHandler struct {
	Repo *repository.PostgresRepo
	Hub  *realtime.Hub
}

func NewOrderHandler(repo *repository.PostgresRepo, hub *realtime.Hub) *OrderHandler {
	return &OrderHandler{Repo: repo, Hub: hub}
}

func (h *OrderHandler) List(c *gin.Context) {
	page, pageSize := pagination(c)
	status := c.Query("status")

	orders, total, err := h.Repo.ListOrders(c.Request.Context(), page, pageSize, status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, model.PaginatedResponse{
		Items: orders, Total: total, Page: page, PageSize: pageSize,
	})
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	order, err := h.Repo.GetOrder(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Create(c *gin.Context) {
	var order model.Order
	if err := c.ShouldBindJSON(&order); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Repo.CreateOrder(c.Request.Context(), &order); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.Hub.Publish(model.NewChangeEvent(model.KindOrder, order.ID, model.OpCreated))
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var order model.Order
	if err := c.ShouldBindJSON(&order); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order.ID = id
	if err := h.Repo.UpdateOrder(c.Request.Context(), &order); err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.Hub.Publish(model.NewChangeEvent(model.KindOrder, order.ID, model.OpUpdated))
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.Repo.DeleteOrder(c.Request.Context(), id); err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.Hub.Publish(model.NewChangeEvent(model.KindOrder, id, model.OpDeleted))
	c.Status(http.StatusNoContent)
}
