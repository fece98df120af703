package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"ledgerd/internal/models"
	"ledgerd/internal/repositories"
	"ledgerd/internal/services/approval"
	"ledgerd/internal/services/auth"
	"ledgerd/internal/utils"
)

// ApprovalHandler exposes the review queue and decision endpoints for
// staff users.
type ApprovalHandler struct {
	service *approval.Service
	auth    auth.Service
}

func NewApprovalHandler(service *approval.Service, authService auth.Service) *ApprovalHandler {
	return &ApprovalHandler{service: service, auth: authService}
}

func (h *ApprovalHandler) ListPending(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return utils.Unauthorized(c, "unauthenticated")
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	approvals, err := h.service.ListPendingForRole(c.Context(), actor, limit)
	if err != nil {
		return utils.InternalError(c, "failed to list approvals")
	}
	return utils.Success(c, fiber.Map{"approvals": approvals})
}

func (h *ApprovalHandler) Approve(c *fiber.Ctx) error {
	return h.decide(c, func(ctx *fiber.Ctx, id uint, notes string) error {
		actor, err := h.actor(ctx)
		if err != nil {
			return err
		}
		_, err = h.service.Approve(ctx.Context(), id, actor, notes)
		return err
	})
}

func (h *ApprovalHandler) Reject(c *fiber.Ctx) error {
	return h.decide(c, func(ctx *fiber.Ctx, id uint, notes string) error {
		actor, err := h.actor(ctx)
		if err != nil {
			return err
		}
		_, err = h.service.Reject(ctx.Context(), id, actor, notes)
		return err
	})
}

func (h *ApprovalHandler) Cancel(c *fiber.Ctx) error {
	return h.decide(c, func(ctx *fiber.Ctx, id uint, _ string) error {
		actor, err := h.actor(ctx)
		if err != nil {
			return err
		}
		_, err = h.service.Cancel(ctx.Context(), id, actor)
		return err
	})
}

func (h *ApprovalHandler) Escalate(c *fiber.Ctx) error {
	return h.decide(c, func(ctx *fiber.Ctx, id uint, _ string) error {
		actor, err := h.actor(ctx)
		if err != nil {
			return err
		}
		_, err = h.service.Escalate(ctx.Context(), id, actor.ID)
		return err
	})
}

func (h *ApprovalHandler) decide(c *fiber.Ctx, action func(*fiber.Ctx, uint, string) error) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "invalid approval id")
	}

	var input struct {
		Notes string `json:"notes"`
	}
	// decisions without a body are fine
	_ = c.BodyParser(&input)

	if err := action(c, id, input.Notes); err != nil {
		switch {
		case errors.Is(err, repositories.ErrApprovalNotFound):
			return utils.NotFound(c, "approval not found")
		case errors.Is(err, approval.ErrAuthorizationDenied):
			return utils.Forbidden(c, err.Error())
		case errors.Is(err, approval.ErrApprovalNotPending),
			errors.Is(err, approval.ErrCannotEscalate):
			return utils.Respond(c, fiber.StatusUnprocessableEntity, fiber.Map{"error": err.Error()})
		}
		return utils.InternalError(c, "approval action failed")
	}
	return utils.Success(c, fiber.Map{"message": "ok"})
}

func (h *ApprovalHandler) actor(c *fiber.Ctx) (*models.User, error) {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return nil, err
	}
	return h.auth.GetUserByID(claims.UserID)
}
