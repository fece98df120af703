package handlers

import (
	"github.com/gofiber/fiber/v2"

	"ledgerd/internal/repositories"
)

// HealthCheck reports liveness plus the state of the two backing stores.
func HealthCheck(c *fiber.Ctx) error {
	database := "connected"
	redis := "connected"
	status := fiber.StatusOK

	if repositories.DB != nil {
		if sqlDB, err := repositories.DB.DB(); err != nil || sqlDB.Ping() != nil {
			database = "unavailable"
			status = fiber.StatusServiceUnavailable
		}
	} else {
		database = "not configured"
		status = fiber.StatusServiceUnavailable
	}

	if repositories.CacheService != nil {
		if err := repositories.CacheService.Ping(c.Context()); err != nil {
			redis = "unavailable"
			status = fiber.StatusServiceUnavailable
		}
	} else {
		redis = "not configured"
	}

	overall := "ok"
	if status != fiber.StatusOK {
		overall = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"services": fiber.Map{
			"database": database,
			"redis":    redis,
		},
	})
}
