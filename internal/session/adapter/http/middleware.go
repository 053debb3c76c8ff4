package http

import (
	"context"
	"strconv"
	"strings"

	"roster-console/internal/session/domain/model"
	"roster-console/internal/session/usecase"
	"roster-console/internal/shared/contextkeys"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

const localsIdentity = "identity"

// SessionMiddleware gates routes on the active session
type SessionMiddleware struct {
	store usecase.SessionStoreInterface
}

// NewSessionMiddleware creates the middleware
func NewSessionMiddleware(store usecase.SessionStoreInterface) *SessionMiddleware {
	return &SessionMiddleware{store: store}
}

// CORS middleware for a browser front end on another origin
func (m *SessionMiddleware) CORS(origins string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	})
}

// SecurityHeaders adds security headers
func (m *SessionMiddleware) SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		return c.Next()
	}
}

// RequestID assigns a request id to every request
func (m *SessionMiddleware) RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		Generator:  uuid.NewString,
		ContextKey: "requestid",
	})
}

// PropagateRequestID copies the request id into the user context
func (m *SessionMiddleware) PropagateRequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := c.Locals("requestid").(string); ok && id != "" {
			c.SetUserContext(context.WithValue(c.UserContext(), contextkeys.RequestIDKey, id))
		}
		return c.Next()
	}
}

// Protect requires the bearer token of the active session
func (m *SessionMiddleware) Protect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		identity, err := m.store.Authorize(c.UserContext(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired session",
			})
		}

		ctx := c.UserContext()
		ctx = context.WithValue(ctx, contextkeys.UserIDKey, strconv.FormatInt(identity.ID, 10))
		ctx = context.WithValue(ctx, contextkeys.UserEmailKey, identity.Email)
		c.SetUserContext(ctx)
		c.Locals(localsIdentity, identity)
		return c.Next()
	}
}

// RequireRole must run after Protect
func (m *SessionMiddleware) RequireRole(role model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFrom(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}
		if identity.Role != role && !identity.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}
		return c.Next()
	}
}

// IdentityFrom returns the identity set by Protect
func IdentityFrom(c *fiber.Ctx) (*model.Identity, bool) {
	identity, ok := c.Locals(localsIdentity).(*model.Identity)
	return identity, ok
}

// extractToken reads the Authorization header, falling back to the token
// query parameter used by websocket clients.
func extractToken(c *fiber.Ctx) string {
	if auth := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return c.Query("token")
}
