package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/store"
	"github.com/shopspring/decimal"
)

type cartLineResponse struct {
	models.CartLine
	Price    models.Money `json:"price"`
	Subtotal models.Money `json:"subtotal"`
}

type cartResponse struct {
	Items []cartLineResponse `json:"items"`
	Total models.Money       `json:"total"`
}

func newCartResponse(lines []models.CartLine) cartResponse {
	resp := cartResponse{Items: make([]cartLineResponse, 0, len(lines))}
	total := decimal.Zero
	for _, line := range lines {
		subtotal := line.Subtotal()
		resp.Items = append(resp.Items, cartLineResponse{
			CartLine: line,
			Price:    models.Money(line.Price),
			Subtotal: models.Money(subtotal),
		})
		total = total.Add(subtotal)
	}
	resp.Total = models.Money(total)
	return resp
}

func (s *Server) handleGetCart(c *gin.Context) {
	lines, err := store.ListCartLines(c.Request.Context(), s.db, currentUserID(c))
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, newCartResponse(lines))
}

type addToCartRequest struct {
	ProductID string `json:"productId" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"omitempty,min=1,max=100"`
}

func (s *Server) handleAddToCart(c *gin.Context) {
	var req addToCartRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	item, err := store.AddCartItem(c.Request.Context(), s.db, currentUserID(c), req.ProductID, req.Quantity)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1,max=100"`
}

func (s *Server) handleUpdateCartItem(c *gin.Context) {
	productID, ok := pathID(c, "productId", "product")
	if !ok {
		return
	}

	var req updateCartItemRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := store.SetCartItemQuantity(c.Request.Context(), s.db, currentUserID(c), productID, req.Quantity); err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"productId": productID, "quantity": req.Quantity})
}

func (s *Server) handleRemoveCartItem(c *gin.Context) {
	productID, ok := pathID(c, "productId", "product")
	if !ok {
		return
	}

	if err := store.RemoveCartItem(c.Request.Context(), s.db, currentUserID(c), productID); err != nil {
		s.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

const (
	defaultOrderLimit = 20
	maxOrderLimit     = 100
)

func (s *Server) handleListOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit < 1 || limit > maxOrderLimit {
		limit = defaultOrderLimit
	}

	cursor := c.Query("cursor")
	if _, err := store.DecodeCursor(cursor); err != nil {
		respondFieldError(c, "cursor", "is invalid")
		return
	}

	page, err := store.ListOrdersCursor(c.Request.Context(), s.db, currentUserID(c), cursor, limit)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (s *Server) handleGetOrder(c *gin.Context) {
	id, ok := pathID(c, "id", "order")
	if !ok {
		return
	}

	order, err := store.GetOrder(c.Request.Context(), s.db, id)
	if err != nil {
		s.handleError(c, err)
		return
	}
	if order.UserID != currentUserID(c) {
		respondError(c, http.StatusNotFound, "Order not found")
		return
	}

	c.JSON(http.StatusOK, order)
}
