package authd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// AuthController exposes the authentication use cases over JSON. The
// wire shapes mirror what the core returns; all policy lives in the
// Authenticator.
type AuthController struct {
	auth   Authenticator
	logger Logger
}

type AuthControllerOption func(*AuthController)

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewAuthController(auth Authenticator, opts ...AuthControllerOption) *AuthController {
	controller := &AuthController{
		auth:   auth,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(controller)
		}
	}

	return controller
}

// RegisterRoutes mounts the public API on app.
func RegisterRoutes(app *fiber.App, controller *AuthController) {
	app.Get("/api", controller.APIInfo)
	app.Get("/health", controller.Health)

	app.Post("/register", controller.Register)
	app.Post("/login", controller.Login)
	app.Post("/verify", controller.Verify)

	app.Get("/users", controller.ListUsers)
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.Email, is.Email),
	)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type verifyRequest struct {
	Token string `json:"token"`
}

func (r verifyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
	)
}

func (c *AuthController) Register(ctx *fiber.Ctx) error {
	var req registerRequest
	if err := ctx.BodyParser(&req); err != nil {
		return badRequest(ctx, "request body must be valid JSON")
	}

	if err := req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	if _, err := c.auth.Register(ctx.Context(), RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
	}); err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
	})
}

func (c *AuthController) Login(ctx *fiber.Ctx) error {
	var req loginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return badRequest(ctx, "request body must be valid JSON")
	}

	if err := req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	result, err := c.auth.Login(ctx.Context(), req.Username, req.Password)
	if err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"token":      result.Token,
		"user":       result.User.Username,
		"user_id":    result.User.ID,
		"role":       result.User.Role,
		"expires_in": result.ExpiresIn(),
	})
}

func (c *AuthController) Verify(ctx *fiber.Ctx) error {
	var req verifyRequest
	if err := ctx.BodyParser(&req); err != nil {
		return badRequest(ctx, "request body must be valid JSON")
	}

	if err := req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	claims, err := c.auth.Verify(ctx.Context(), req.Token)
	if err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"valid":      true,
		"user":       claims.Username,
		"user_id":    claims.UserID(),
		"role":       claims.Role(),
		"expires_at": claims.Expires().Unix(),
	})
}

func (c *AuthController) ListUsers(ctx *fiber.Ctx) error {
	token, ok := bearerToken(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authorization header required",
		})
	}

	profiles, err := c.auth.ListUsers(ctx.Context(), token)
	if err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"users":       profiles,
		"total_users": len(profiles),
	})
}

func (c *AuthController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"status":  "healthy",
		"message": "Server is running",
	})
}

func (c *AuthController) APIInfo(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"message": "Credential issuance API is running",
		"endpoints": fiber.Map{
			"register": "/register (POST)",
			"login":    "/login (POST)",
			"verify":   "/verify (POST)",
			"users":    "/users (GET) - Admin only",
			"health":   "/health (GET)",
		},
	})
}

// renderError maps the error taxonomy onto HTTP statuses. Anything
// unrecognized is an internal failure: logged with detail, rendered
// without any.
func (c *AuthController) renderError(ctx *fiber.Ctx, err error) error {
	switch {
	case IsPasswordPolicyViolation(err):
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Password requirements not met",
			"details": PolicyViolations(err),
		})
	case HasTextCode(err, TextCodeValidation):
		return badRequest(ctx, errorMessage(err))
	case IsDuplicateIdentity(err):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": errorMessage(err),
		})
	case IsUnauthenticated(err):
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": errorMessage(err),
		})
	case IsForbidden(err):
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": errorMessage(err),
		})
	}

	c.logger.Error("internal error", "path", ctx.Path(), "error", err)

	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}

func badRequest(ctx *fiber.Ctx, message string) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": message,
	})
}

func errorMessage(err error) string {
	var rich *errors.Error
	if errors.As(err, &rich) && rich.Message != "" {
		return rich.Message
	}
	return err.Error()
}

func bearerToken(ctx *fiber.Ctx) (string, bool) {
	header := ctx.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", false
	}

	const scheme = "Bearer "
	if !strings.HasPrefix(header, scheme) {
		return "", false
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, scheme))
	return token, token != ""
}
