package http

import (
	"roster-console/internal/session/domain/model"
	"roster-console/internal/session/usecase"
	"roster-console/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// SessionHTTPHandler exposes the session lifecycle
type SessionHTTPHandler struct {
	store usecase.SessionStoreInterface
	log   logger.Logger
}

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// LoginResponse carries the token and the resulting state
type LoginResponse struct {
	Token string      `json:"token"`
	State model.State `json:"state"`
}

// NewSessionHTTPHandler creates the handler
func NewSessionHTTPHandler(store usecase.SessionStoreInterface, log logger.Logger) *SessionHTTPHandler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &SessionHTTPHandler{store: store, log: log.WithComponent("session-http")}
}

// SetupRoutes registers the session routes on router
func (h *SessionHTTPHandler) SetupRoutes(router fiber.Router, middleware *SessionMiddleware) {
	router.Get("/", h.GetState)
	router.Post("/login", h.Login)
	router.Post("/logout", middleware.Protect(), h.Logout)
}

// Login handles POST /login
func (h *SessionHTTPHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	ok, err := h.store.Login(c.UserContext(), req.Email, req.Password, req.Remember)
	if err != nil {
		h.log.WithContext(c.UserContext()).Errorf("login failed: %v", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": model.MsgLoginFailed,
		})
	}
	if !ok {
		msg := h.store.State().Error
		if msg == "" {
			msg = model.MsgInvalidCredentials
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": msg,
		})
	}

	token, _ := h.store.Token(c.UserContext())
	return c.JSON(LoginResponse{Token: token, State: h.store.State()})
}

// Logout handles POST /logout
func (h *SessionHTTPHandler) Logout(c *fiber.Ctx) error {
	if err := h.store.Logout(c.UserContext()); err != nil {
		h.log.WithContext(c.UserContext()).Errorf("logout failed to clear storage: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to clear session",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetState handles GET /
func (h *SessionHTTPHandler) GetState(c *fiber.Ctx) error {
	return c.JSON(h.store.State())
}
