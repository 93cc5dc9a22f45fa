package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/store"
	"github.com/shopspring/decimal"
)

func (s *Server) handleAdminListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))
	page, pageSize = store.NormalizePage(page, pageSize)

	result, err := store.ListUsers(c.Request.Context(), s.db, page, pageSize)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type productRequest struct {
	Title            string           `json:"title" binding:"required,min=1,max=200"`
	Description      string           `json:"description" binding:"required"`
	ShortDescription *string          `json:"shortDescription"`
	Category         string           `json:"category" binding:"required"`
	Price            *decimal.Decimal `json:"price" binding:"required"`
	Image            string           `json:"image" binding:"required,url"`
	Images           []string         `json:"images" binding:"omitempty,dive,url"`
	Author           string           `json:"author" binding:"required"`
	AuthorID         *string          `json:"authorId"`
	Rating           *decimal.Decimal `json:"rating"`
	Downloads        int              `json:"downloads" binding:"omitempty,min=0"`
	IsFeatured       bool             `json:"isFeatured"`
	Tags             []string         `json:"tags"`
	LicenseType      string           `json:"licenseType" binding:"required"`
	DownloadURL      *string          `json:"downloadUrl" binding:"omitempty,url"`
	FileSize         *string          `json:"fileSize"`
	Version          *string          `json:"version"`
}

type productPatchRequest struct {
	Title            *string          `json:"title" binding:"omitempty,min=1,max=200"`
	Description      *string          `json:"description"`
	ShortDescription *string          `json:"shortDescription"`
	Category         *string          `json:"category" binding:"omitempty,min=1"`
	Price            *decimal.Decimal `json:"price"`
	Image            *string          `json:"image" binding:"omitempty,url"`
	Images           *[]string        `json:"images"`
	Author           *string          `json:"author"`
	AuthorID         *string          `json:"authorId"`
	Rating           *decimal.Decimal `json:"rating"`
	Downloads        *int             `json:"downloads" binding:"omitempty,min=0"`
	IsFeatured       *bool            `json:"isFeatured"`
	Tags             *[]string        `json:"tags"`
	LicenseType      *string          `json:"licenseType"`
	DownloadURL      *string          `json:"downloadUrl" binding:"omitempty,url"`
	FileSize         *string          `json:"fileSize"`
	Version          *string          `json:"version"`
}

// checkMoney rejects negative prices and ratings outside [0, 5].
func checkMoney(c *gin.Context, price, rating *decimal.Decimal) bool {
	if price != nil && price.IsNegative() {
		respondFieldError(c, "price", "must not be negative")
		return false
	}
	if rating != nil && (rating.IsNegative() || rating.GreaterThan(decimal.NewFromInt(5))) {
		respondFieldError(c, "rating", "must be between 0 and 5")
		return false
	}
	return true
}

func (s *Server) handleAdminCreateProduct(c *gin.Context) {
	var req productRequest
	if !bindJSON(c, &req) || !checkMoney(c, req.Price, req.Rating) {
		return
	}

	rating := decimal.Zero
	if req.Rating != nil {
		rating = *req.Rating
	}

	product, err := store.CreateProduct(c.Request.Context(), s.db, store.ProductInput{
		Title:            req.Title,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Category:         req.Category,
		Price:            *req.Price,
		Image:            req.Image,
		Images:           req.Images,
		Author:           req.Author,
		AuthorID:         req.AuthorID,
		Rating:           rating,
		Downloads:        req.Downloads,
		IsFeatured:       req.IsFeatured,
		Tags:             req.Tags,
		LicenseType:      req.LicenseType,
		DownloadURL:      req.DownloadURL,
		FileSize:         req.FileSize,
		Version:          req.Version,
	})
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (s *Server) handleAdminUpdateProduct(c *gin.Context) {
	id, ok := pathID(c, "id", "product")
	if !ok {
		return
	}

	var req productPatchRequest
	if !bindJSON(c, &req) || !checkMoney(c, req.Price, req.Rating) {
		return
	}

	product, err := store.UpdateProduct(c.Request.Context(), s.db, id, store.ProductPatch{
		Title:            req.Title,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Category:         req.Category,
		Price:            req.Price,
		Image:            req.Image,
		Images:           req.Images,
		Author:           req.Author,
		AuthorID:         req.AuthorID,
		Rating:           req.Rating,
		Downloads:        req.Downloads,
		IsFeatured:       req.IsFeatured,
		Tags:             req.Tags,
		LicenseType:      req.LicenseType,
		DownloadURL:      req.DownloadURL,
		FileSize:         req.FileSize,
		Version:          req.Version,
	})
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (s *Server) handleAdminDeleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id", "product")
	if !ok {
		return
	}

	if err := store.DeleteProduct(c.Request.Context(), s.db, id); err != nil {
		s.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type dealRequest struct {
	Title           string    `json:"title" binding:"required"`
	Description     string    `json:"description" binding:"required"`
	DiscountPercent int       `json:"discountPercent" binding:"required,min=1,max=100"`
	Code            string    `json:"code" binding:"required,min=3,max=32"`
	StartDate       time.Time `json:"startDate" binding:"required"`
	EndDate         time.Time `json:"endDate" binding:"required,gtefield=StartDate"`
	IsActive        *bool     `json:"isActive"`
	ProductIDs      []string  `json:"productIds" binding:"omitempty,dive,uuid"`
	CategoryIDs     []string  `json:"categoryIds"`
}

type dealPatchRequest struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	DiscountPercent *int       `json:"discountPercent" binding:"omitempty,min=1,max=100"`
	Code            *string    `json:"code" binding:"omitempty,min=3,max=32"`
	StartDate       *time.Time `json:"startDate"`
	EndDate         *time.Time `json:"endDate"`
	IsActive        *bool      `json:"isActive"`
	ProductIDs      *[]string  `json:"productIds"`
	CategoryIDs     *[]string  `json:"categoryIds"`
}

func (s *Server) handleAdminListDeals(c *gin.Context) {
	deals, err := store.ListDeals(c.Request.Context(), s.db)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, deals)
}

func (s *Server) handleAdminCreateDeal(c *gin.Context) {
	var req dealRequest
	if !bindJSON(c, &req) {
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	deal, err := store.CreateDeal(c.Request.Context(), s.db, store.DealInput{
		Title:           req.Title,
		Description:     req.Description,
		DiscountPercent: req.DiscountPercent,
		Code:            req.Code,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		IsActive:        active,
		ProductIDs:      req.ProductIDs,
		CategoryIDs:     req.CategoryIDs,
	})
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, deal)
}

func (s *Server) handleAdminUpdateDeal(c *gin.Context) {
	id, ok := pathID(c, "id", "deal")
	if !ok {
		return
	}

	var req dealPatchRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		respondFieldError(c, "endDate", "must not be before startDate")
		return
	}

	deal, err := store.UpdateDeal(c.Request.Context(), s.db, id, store.DealPatch{
		Title:           req.Title,
		Description:     req.Description,
		DiscountPercent: req.DiscountPercent,
		Code:            req.Code,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		IsActive:        req.IsActive,
		ProductIDs:      req.ProductIDs,
		CategoryIDs:     req.CategoryIDs,
	})
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, deal)
}

func (s *Server) handleAdminDeleteDeal(c *gin.Context) {
	id, ok := pathID(c, "id", "deal")
	if !ok {
		return
	}

	if err := store.DeleteDeal(c.Request.Context(), s.db, id); err != nil {
		s.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type testimonialRequest struct {
	Name       string  `json:"name" binding:"required,min=2"`
	Role       *string `json:"role"`
	Avatar     *string `json:"avatar" binding:"omitempty,url"`
	Rating     int     `json:"rating" binding:"required,min=1,max=5"`
	Content    string  `json:"content" binding:"required,min=10"`
	IsVerified bool    `json:"isVerified"`
	IsVisible  *bool   `json:"isVisible"`
}

type testimonialPatchRequest struct {
	Name       *string `json:"name" binding:"omitempty,min=2"`
	Role       *string `json:"role"`
	Avatar     *string `json:"avatar" binding:"omitempty,url"`
	Rating     *int    `json:"rating" binding:"omitempty,min=1,max=5"`
	Content    *string `json:"content" binding:"omitempty,min=10"`
	IsVerified *bool   `json:"isVerified"`
	IsVisible  *bool   `json:"isVisible"`
}

func (s *Server) handleAdminListTestimonials(c *gin.Context) {
	testimonials, err := store.ListTestimonials(c.Request.Context(), s.db, false)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, testimonials)
}

func (s *Server) handleAdminCreateTestimonial(c *gin.Context) {
	var req testimonialRequest
	if !bindJSON(c, &req) {
		return
	}

	visible := true
	if req.IsVisible != nil {
		visible = *req.IsVisible
	}

	testimonial, err := store.CreateTestimonial(c.Request.Context(), s.db, store.TestimonialInput{
		Name:       req.Name,
		Role:       req.Role,
		Avatar:     req.Avatar,
		Rating:     req.Rating,
		Content:    req.Content,
		IsVerified: req.IsVerified,
		IsVisible:  visible,
	})
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, testimonial)
}

func (s *Server) handleAdminUpdateTestimonial(c *gin.Context) {
	id, ok := pathID(c, "id", "testimonial")
	if !ok {
		return
	}

	var req testimonialPatchRequest
	if !bindJSON(c, &req) {
		return
	}

	testimonial, err := store.UpdateTestimonial(c.Request.Context(), s.db, id, store.TestimonialPatch{
		Name:       req.Name,
		Role:       req.Role,
		Avatar:     req.Avatar,
		Rating:     req.Rating,
		Content:    req.Content,
		IsVerified: req.IsVerified,
		IsVisible:  req.IsVisible,
	})
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, testimonial)
}

func (s *Server) handleAdminDeleteTestimonial(c *gin.Context) {
	id, ok := pathID(c, "id", "testimonial")
	if !ok {
		return
	}

	if err := store.DeleteTestimonial(c.Request.Context(), s.db, id); err != nil {
		s.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

const (
	defaultAnalyticsDays = 30
	maxAnalyticsDays     = 365
)

func (s *Server) handleAdminLoginAnalytics(c *gin.Context) {
	days := defaultAnalyticsDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxAnalyticsDays {
			respondFieldError(c, "days", "must be between 1 and 365")
			return
		}
		days = n
	}

	analytics, err := store.GetLoginAnalytics(c.Request.Context(), s.db, days, s.now())
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, analytics)
}

func (s *Server) handleAdminListSubscribers(c *gin.Context) {
	subs, err := store.ListSubscribers(c.Request.Context(), s.db)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, subs)
}

var productRequestStatuses = map[string]bool{
	models.ProductRequestPending:   true,
	models.ProductRequestReviewed:  true,
	models.ProductRequestFulfilled: true,
	models.ProductRequestRejected:  true,
}

func (s *Server) handleAdminListProductRequests(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !productRequestStatuses[status] {
		respondFieldError(c, "status", "must be one of: pending reviewed fulfilled rejected")
		return
	}

	reqs, err := store.ListProductRequests(c.Request.Context(), s.db, status)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, reqs)
}

type productRequestStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending reviewed fulfilled rejected"`
}

func (s *Server) handleAdminUpdateProductRequest(c *gin.Context) {
	id, ok := pathID(c, "id", "product request")
	if !ok {
		return
	}

	var req productRequestStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := store.UpdateProductRequestStatus(c.Request.Context(), s.db, id, req.Status)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}
