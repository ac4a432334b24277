package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "hearth/internal/errors"
	"hearth/internal/models"
	"hearth/internal/money"
	"hearth/internal/pagination"
	"hearth/internal/services"
)

// TransferHandler handles account-to-account transfer requests.
type TransferHandler struct {
	transferService services.TransferServicer
	auditService    services.AuditServicer
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferService services.TransferServicer, auditService services.AuditServicer) *TransferHandler {
	return &TransferHandler{transferService: transferService, auditService: auditService}
}

// TransferRequest represents the payload for creating or updating a transfer.
type TransferRequest struct {
	FromAccountID uint    `json:"from_account_id" binding:"required"`
	ToAccountID   uint    `json:"to_account_id" binding:"required"`
	Amount        string  `json:"amount" binding:"required,amount"`
	Description   string  `json:"description" binding:"max=500"`
	Date          *string `json:"date"`
}

// TransferResponse represents a transfer in the response
type TransferResponse struct {
	ID            uint      `json:"id"`
	UserID        uint      `json:"user_id"`
	FromAccountID uint      `json:"from_account_id"`
	ToAccountID   uint      `json:"to_account_id"`
	Amount        string    `json:"amount"`
	Description   string    `json:"description"`
	Date          time.Time `json:"date"`
	IsFamily      bool      `json:"is_family"`
}

func toTransferResponse(t *models.Transfer) TransferResponse {
	return TransferResponse{
		ID:            t.ID,
		UserID:        t.UserID,
		FromAccountID: t.FromAccountID,
		ToAccountID:   t.ToAccountID,
		Amount:        money.FormatCents(t.Amount),
		Description:   t.Description,
		Date:          t.Date,
		IsFamily:      t.IsFamily,
	}
}

// CreateTransfer moves money between two accounts
func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	amount, err := money.ParseCents(req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	date, err := requestDate(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transfer, err := h.transferService.CreateTransfer(
		userID, familyScope(c), req.FromAccountID, req.ToAccountID, amount, req.Description, date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_TRANSFER", "transfer", transfer.ID, c.ClientIP(),
		map[string]interface{}{"from": req.FromAccountID, "to": req.ToAccountID, "amount": req.Amount})

	c.JSON(http.StatusCreated, gin.H{"transfer": toTransferResponse(transfer)})
}

// ListTransfers returns the transfers visible in the requested scope
func (h *TransferHandler) ListTransfers(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	resp, err := h.transferService.ListTransfers(userID, familyScope(c), page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	data := make([]TransferResponse, 0, len(resp.Data))
	for i := range resp.Data {
		data = append(data, toTransferResponse(&resp.Data[i]))
	}
	c.JSON(http.StatusOK, pagination.PageResponse[TransferResponse]{
		Data:       data,
		Page:       resp.Page,
		PageSize:   resp.PageSize,
		TotalItems: resp.TotalItems,
		TotalPages: resp.TotalPages,
	})
}

// GetTransfer returns a single transfer
func (h *TransferHandler) GetTransfer(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transferID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transfer, err := h.transferService.GetTransfer(userID, transferID, familyScope(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transfer": toTransferResponse(transfer)})
}

// UpdateTransfer rewrites a transfer
func (h *TransferHandler) UpdateTransfer(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transferID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	amount, err := money.ParseCents(req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	date, err := requestDate(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transfer, err := h.transferService.UpdateTransfer(
		userID, transferID, familyScope(c), req.FromAccountID, req.ToAccountID, amount, req.Description, date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_TRANSFER", "transfer", transfer.ID, c.ClientIP(),
		map[string]interface{}{"from": req.FromAccountID, "to": req.ToAccountID, "amount": req.Amount})

	c.JSON(http.StatusOK, gin.H{"transfer": toTransferResponse(transfer)})
}

// DeleteTransfer deletes a transfer and reverts both account balances
func (h *TransferHandler) DeleteTransfer(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transferID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transferService.DeleteTransfer(userID, transferID, familyScope(c)); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_TRANSFER", "transfer", transferID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Transfer deleted"})
}
