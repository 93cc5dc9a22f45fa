package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/safar/storefront/internal/checkout"
)

const (
	signatureHeader   = "x-razorpay-signature"
	eventIDHeader     = "x-razorpay-event-id"
	maxWebhookPayload = 1 << 20
)

func (s *Server) handleCreateOrder(c *gin.Context) {
	result, err := s.checkout.Create(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type verifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
}

func (s *Server) handleVerifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := s.checkout.Verify(c.Request.Context(), checkout.VerifyRequest{
		UserID:    currentUserID(c),
		IntentID:  req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment verified successfully",
		"orderId": result.OrderID,
	})
}

// handleRazorpayWebhook verifies the signature over the exact bytes received,
// so the body is read raw rather than bound.
func (s *Server) handleRazorpayWebhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookPayload))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	outcome, err := s.webhooks.Handle(c.Request.Context(), body, c.GetHeader(signatureHeader), c.GetHeader(eventIDHeader))
	if err != nil {
		if errors.Is(err, checkout.ErrInvalidSignature) {
			respondError(c, http.StatusBadRequest, "Invalid webhook signature")
			return
		}
		s.handleError(c, err)
		return
	}

	s.logger.DebugContext(c.Request.Context(), "webhook handled", "outcome", string(outcome))
	c.JSON(http.StatusOK, gin.H{"success": true})
}
