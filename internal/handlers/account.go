package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"ledgerd/internal/repositories"
	"ledgerd/internal/services/account"
	"ledgerd/internal/services/accountstate"
	"ledgerd/internal/services/auth"
	"ledgerd/internal/utils"
)

// AccountHandler exposes account management: opening, grouping, the
// aggregated view and lifecycle transitions.
type AccountHandler struct {
	service *account.Service
	auth    auth.Service
}

func NewAccountHandler(service *account.Service, authService auth.Service) *AccountHandler {
	return &AccountHandler{service: service, auth: authService}
}

func (h *AccountHandler) Create(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "unauthenticated")
	}

	var input struct {
		Currency string   `json:"currency"`
		Country  string   `json:"country"`
		ParentID *uint    `json:"parent_id"`
		Features []string `json:"features"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	acct, err := h.service.Create(c.Context(), account.CreateRequest{
		OwnerID:  claims.UserID,
		Currency: input.Currency,
		Country:  input.Country,
		ParentID: input.ParentID,
		Features: input.Features,
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrAccountNotFound):
			return utils.NotFound(c, "parent account not found")
		case errors.Is(err, repositories.ErrCurrencyMismatch),
			errors.Is(err, repositories.ErrNestingTooDeep):
			return utils.BadRequest(c, err.Error())
		}
		return utils.InternalError(c, "account creation failed")
	}

	return utils.Respond(c, fiber.StatusCreated, acct)
}

func (h *AccountHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "invalid account id")
	}

	overview, err := h.service.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return utils.NotFound(c, "account not found")
		}
		return utils.InternalError(c, "lookup failed")
	}

	return utils.Success(c, fiber.Map{
		"account":          overview.Account,
		"state":            overview.State,
		"reported_balance": overview.ReportedBalance,
		"child_count":      overview.ChildCount,
	})
}

func (h *AccountHandler) ListMine(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "unauthenticated")
	}

	accounts, err := h.service.ListByOwner(c.Context(), claims.UserID)
	if err != nil {
		return utils.InternalError(c, "failed to list accounts")
	}
	return utils.Success(c, fiber.Map{"accounts": accounts})
}

func (h *AccountHandler) AttachToGroup(c *fiber.Ctx) error {
	childID, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "invalid account id")
	}

	var input struct {
		ParentID uint `json:"parent_id"`
	}
	if err := c.BodyParser(&input); err != nil || input.ParentID == 0 {
		return utils.BadRequest(c, "parent_id is required")
	}

	if err := h.service.AttachToGroup(c.Context(), childID, input.ParentID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrAccountNotFound):
			return utils.NotFound(c, "account not found")
		case errors.Is(err, repositories.ErrNestingTooDeep),
			errors.Is(err, repositories.ErrCurrencyMismatch):
			return utils.BadRequest(c, err.Error())
		}
		return utils.InternalError(c, "attach failed")
	}
	return utils.Success(c, fiber.Map{"message": "attached"})
}

func (h *AccountHandler) Transition(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "unauthenticated")
	}
	accountID, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "invalid account id")
	}

	var input struct {
		State  string `json:"state"`
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	actor, err := h.auth.GetUserByID(claims.UserID)
	if err != nil {
		return utils.Unauthorized(c, "unauthenticated")
	}

	records, err := h.service.Transition(c.Context(), accountID, input.State, actor, input.Reason)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrAccountNotFound):
			return utils.NotFound(c, "account not found")
		case errors.Is(err, accountstate.ErrAuthorizationDenied):
			return utils.Forbidden(c, err.Error())
		case errors.Is(err, accountstate.ErrStateTransitionDenied),
			errors.Is(err, accountstate.ErrUnknownState):
			return utils.Respond(c, fiber.StatusUnprocessableEntity, fiber.Map{"error": err.Error()})
		}
		return utils.InternalError(c, "transition failed")
	}

	return utils.Success(c, fiber.Map{
		"state":             input.State,
		"accounts_affected": len(records),
	})
}

func (h *AccountHandler) StateHistory(c *fiber.Ctx) error {
	accountID, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "invalid account id")
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	records, err := h.service.StateHistory(c.Context(), accountID, limit)
	if err != nil {
		return utils.InternalError(c, "failed to load state history")
	}
	return utils.Success(c, fiber.Map{"history": records})
}

func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
