package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appconv "github.com/storefront/backend/internal/application/conversation"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/whatsapp"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// DialogHandler runs one conversation turn for an inbound message
type DialogHandler interface {
	Handle(ctx context.Context, msg appconv.IncomingMessage) (*appconv.Reply, error)
}

// WebhookHandler receives inbound WhatsApp messages and replies through the
// gateway
type WebhookHandler struct {
	BaseHandler
	dialog DialogHandler
	sender whatsapp.Sender
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(dialog DialogHandler, sender whatsapp.Sender) *WebhookHandler {
	if sender == nil {
		sender = whatsapp.NopSender{}
	}
	return &WebhookHandler{dialog: dialog, sender: sender}
}

// InboundMessageRequest is the webhook payload for one inbound message
type InboundMessageRequest struct {
	From          string `json:"from" binding:"required"`
	Text          string `json:"text"`
	AttachmentURL string `json:"attachment_url"`
}

// ReplyResponse echoes the reply the bot produced for the message
type ReplyResponse struct {
	CustomerID string `json:"customer_id"`
	Reply      string `json:"reply"`
	Language   string `json:"language"`
}

// HandleInbound processes one inbound message end to end: resolve the
// customer, advance the dialog, send the reply back over WhatsApp.
func (h *WebhookHandler) HandleInbound(c *gin.Context) {
	var req InboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	ctx := c.Request.Context()
	reply, err := h.dialog.Handle(ctx, appconv.IncomingMessage{
		PhoneRaw:      req.From,
		Text:          req.Text,
		AttachmentURL: req.AttachmentURL,
	})
	if err != nil {
		logger.L(ctx).Error("dialog turn failed",
			zap.String("from", req.From),
			zap.Error(err))
		// The customer still gets a human answer even when the turn fails;
		// their state is preserved so the next message can retry.
		if sendErr := h.sender.SendText(ctx, req.From, appconv.ApologyText()); sendErr != nil {
			logger.L(ctx).Warn("failed to send apology", zap.Error(sendErr))
		}
		h.InternalError(c, "Failed to process message")
		return
	}

	if err := h.sender.SendText(ctx, req.From, reply.Text); err != nil {
		logger.L(ctx).Warn("failed to send reply",
			zap.String("from", req.From),
			zap.Error(err))
	}

	h.Success(c, ReplyResponse{
		CustomerID: reply.CustomerID.String(),
		Reply:      reply.Text,
		Language:   string(reply.Language),
	})
}
