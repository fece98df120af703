package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"ledgerd/internal/repositories"
	"ledgerd/internal/services/auth"
	"ledgerd/internal/utils"
)

// AuthHandler exposes registration, login and token lifecycle endpoints.
type AuthHandler struct {
	service auth.Service
}

func NewAuthHandler(service auth.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Country  string `json:"country"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	user, err := h.service.Register(auth.RegisterRequest{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Country:  input.Country,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateUser) {
			return utils.Respond(c, fiber.StatusConflict, fiber.Map{"error": "email already registered"})
		}
		return utils.BadRequest(c, err.Error())
	}

	return utils.Respond(c, fiber.StatusCreated, fiber.Map{
		"id":    user.ID,
		"email": user.Email,
		"role":  user.Role,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	user, accessToken, refreshToken, err := h.service.Login(input.Email, input.Password, c.IP())
	if err != nil {
		if errors.Is(err, auth.ErrAccountLocked) {
			return utils.Respond(c, fiber.StatusLocked, fiber.Map{"error": "account temporarily locked"})
		}
		return utils.Unauthorized(c, "invalid credentials")
	}

	return utils.Success(c, fiber.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user": fiber.Map{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
	})
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	accessToken, refreshToken, err := h.service.RefreshTokens(input.RefreshToken)
	if err != nil {
		return utils.Unauthorized(c, err.Error())
	}
	return utils.Success(c, fiber.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "unauthenticated")
	}
	if err := h.service.Logout(claims.UserID); err != nil {
		return utils.InternalError(c, "logout failed")
	}
	return utils.Success(c, fiber.Map{"message": "logged out"})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "unauthenticated")
	}

	var input struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	if err := h.service.ChangePassword(claims.UserID, input.OldPassword, input.NewPassword); err != nil {
		return utils.BadRequest(c, err.Error())
	}
	return utils.Success(c, fiber.Map{"message": "password changed"})
}
