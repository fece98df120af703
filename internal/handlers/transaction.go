package handlers

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"ledgerd/internal/repositories"
	"ledgerd/internal/services/transaction"
	"ledgerd/internal/services/validation"
	"ledgerd/internal/utils"
)

// TransactionHandler exposes submission and history endpoints. A submission
// always answers with the classified decision; business rejections are not
// transport errors.
type TransactionHandler struct {
	service *transaction.Service
}

func NewTransactionHandler(service *transaction.Service) *TransactionHandler {
	return &TransactionHandler{service: service}
}

func (h *TransactionHandler) Submit(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "unauthenticated")
	}

	var input struct {
		Type                 string                 `json:"type"`
		SourceAccountID      *uint                  `json:"source_account_id"`
		DestinationAccountID *uint                  `json:"destination_account_id"`
		Amount               decimal.Decimal        `json:"amount"`
		Currency             string                 `json:"currency"`
		OriginCountry        string                 `json:"origin_country"`
		Description          string                 `json:"description"`
		Metadata             map[string]interface{} `json:"metadata"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	result, err := h.service.Submit(c.Context(), transaction.Request{
		Type:                 input.Type,
		SourceAccountID:      input.SourceAccountID,
		DestinationAccountID: input.DestinationAccountID,
		Amount:               input.Amount,
		Currency:             input.Currency,
		InitiatorID:          claims.UserID,
		OriginCountry:        input.OriginCountry,
		Description:          input.Description,
		Metadata:             input.Metadata,
	})
	if err != nil {
		switch {
		case errors.Is(err, transaction.ErrMissingSource),
			errors.Is(err, transaction.ErrMissingDestination),
			errors.Is(err, transaction.ErrUnexpectedSource),
			errors.Is(err, transaction.ErrSameAccount),
			errors.Is(err, transaction.ErrCurrencyMismatch),
			errors.Is(err, transaction.ErrUnknownType):
			return utils.BadRequest(c, err.Error())
		case errors.Is(err, repositories.ErrAccountNotFound):
			return utils.NotFound(c, "account not found")
		}
		log.Printf("transaction submit failed: %v", err)
		return utils.InternalError(c, "submission failed")
	}

	return respondWithResult(c, result)
}

func respondWithResult(c *fiber.Ctx, result *transaction.Result) error {
	body := fiber.Map{
		"reference": result.Transaction.Reference,
		"status":    result.Transaction.Status,
		"decision":  result.Outcome.Decision,
		"fee":       result.Transaction.Fee,
	}
	if result.Outcome.RiskScore != nil {
		body["risk_score"] = *result.Outcome.RiskScore
	}

	switch result.Outcome.Decision {
	case validation.DecisionRejected:
		body["failure"] = result.Outcome.Err
		return utils.Respond(c, fiber.StatusUnprocessableEntity, body)
	case validation.DecisionDeferred:
		if result.Approval != nil {
			body["approval"] = fiber.Map{
				"reference": result.Approval.Reference,
				"level":     result.Approval.Level,
				"due_at":    result.Approval.DueAt,
			}
		}
		return utils.Respond(c, fiber.StatusAccepted, body)
	default:
		return utils.Respond(c, fiber.StatusCreated, body)
	}
}

func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	reference := c.Params("reference")
	tx, err := h.service.GetByReference(reference)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return utils.NotFound(c, "transaction not found")
		}
		return utils.InternalError(c, "lookup failed")
	}
	return utils.Success(c, tx)
}

func (h *TransactionHandler) ListByAccount(c *fiber.Ctx) error {
	accountID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "invalid account id")
	}

	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	transactions, err := h.service.ListByAccount(uint(accountID), limit, offset)
	if err != nil {
		return utils.InternalError(c, "failed to list transactions")
	}
	return utils.Success(c, fiber.Map{"transactions": transactions})
}
