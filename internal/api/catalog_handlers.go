package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/safar/storefront/internal/store"
)

func (s *Server) handleListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))
	page, pageSize = store.NormalizePage(page, pageSize)

	filter := store.ProductFilter{
		Category: c.Query("category"),
		Query:    c.Query("q"),
	}
	if raw := c.Query("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			respondFieldError(c, "featured", "must be true or false")
			return
		}
		filter.Featured = &featured
	}

	result, err := store.ListProducts(c.Request.Context(), s.db, filter, page, pageSize)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetProduct(c *gin.Context) {
	id, ok := pathID(c, "id", "product")
	if !ok {
		return
	}

	product, err := store.GetProduct(c.Request.Context(), s.db, id)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (s *Server) handleListCategories(c *gin.Context) {
	categories, err := store.ListCategories(c.Request.Context(), s.db)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, categories)
}

func (s *Server) handleActiveDeals(c *gin.Context) {
	deals, err := store.ListActiveDeals(c.Request.Context(), s.db, s.now())
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, deals)
}

func (s *Server) handleVisibleTestimonials(c *gin.Context) {
	testimonials, err := store.ListTestimonials(c.Request.Context(), s.db, true)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, testimonials)
}

type subscribeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (s *Server) handleSubscribe(c *gin.Context) {
	var req subscribeRequest
	if !bindJSON(c, &req) {
		return
	}

	sub, err := store.Subscribe(c.Request.Context(), s.db, req.Email)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subscribed", "subscriber": sub})
}

type productRequestRequest struct {
	ProductName string  `json:"productName" binding:"required,min=2,max=200"`
	Email       string  `json:"email" binding:"required,email"`
	Message     *string `json:"message" binding:"omitempty,max=2000"`
}

func (s *Server) handleCreateProductRequest(c *gin.Context) {
	var req productRequestRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := store.CreateProductRequest(c.Request.Context(), s.db, req.ProductName, req.Email, req.Message)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}
