package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rawstudio/ticketbot/internal/store"
	"github.com/rawstudio/ticketbot/internal/ticket"
)

// SecretHeader carries the webhook shared secret.
const SecretHeader = "x-webhook-secret"

// SelectionHandler receives the package-selection callback from the website
// and hands it to the lifecycle controller.
type SelectionHandler struct {
	ctrl   *ticket.Controller
	secret string
}

func NewSelectionHandler(ctrl *ticket.Controller, secret string) *SelectionHandler {
	return &SelectionHandler{ctrl: ctrl, secret: secret}
}

type selectionRequest struct {
	Token           string `json:"token" binding:"required"`
	DiscordID       string `json:"discordId" binding:"required"`
	TicketChannelID string `json:"ticketChannelId" binding:"required"`
	PackageName     string `json:"packageName" binding:"required"`
	PackagePrice    string `json:"packagePrice"`
	EventDateTime   string `json:"eventDateTime" binding:"required"`
	ServerLink      string `json:"serverLink" binding:"required"`
	CustomRequests  string `json:"customRequests"`
}

// PackageSelection is POST /webhook/package-selection. Checks run in order:
// shared secret, token verification, token/payload cross-check, ticket
// lookup; only then does the transition execute.
func (h *SelectionHandler) PackageSelection(c *gin.Context) {
	if c.GetHeader(SecretHeader) != h.secret {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	eventAt, err := time.Parse(time.RFC3339, req.EventDateTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid eventDateTime"})
		return
	}

	sel, err := h.ctrl.Reconcile(c.Request.Context(), ticket.SelectionPayload{
		Token:          req.Token,
		UserID:         req.DiscordID,
		ChannelID:      req.TicketChannelID,
		PackageName:    req.PackageName,
		PackagePrice:   req.PackagePrice,
		EventAt:        eventAt,
		ServerLink:     req.ServerLink,
		CustomRequests: req.CustomRequests,
	})
	if err != nil {
		switch {
		case errors.Is(err, ticket.ErrInvalidToken):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		case errors.Is(err, ticket.ErrTokenMismatch):
			c.JSON(http.StatusForbidden, gin.H{"error": "token mismatch"})
		case errors.Is(err, store.ErrTicketNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
		default:
			logrus.WithError(err).Error("package selection webhook failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Package selection received",
		"selectionId": sel.ID,
	})
}
