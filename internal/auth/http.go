// Copyright (c) 2026 Sentra. All rights reserved.
// Author: dev@sentra.io

/*
HTTP delivery layer for the authentication lifecycle.

The handler acts as a thin mediation layer between the web and the flow
controller:
  - Protocol: Standard RESTful JSON interface.
  - Security: Injects the encrypted session cookie on sign-in.
  - Verification: Enforces strict input validation before passing to [Service].

This layer is strictly responsible for transport concerns (status codes,
headers, JSON). Action-token endpoints receive the signed token as a query
parameter, matching the links embedded in outbound mail.
*/

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sentra-app/sentra/internal/platform/middleware"
	requestutil "github.com/sentra-app/sentra/internal/platform/request"
	"github.com/sentra-app/sentra/internal/platform/respond"
	"github.com/sentra-app/sentra/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
type Handler struct {
	authService *Service

	// cookieName is the session cookie's name (shared with the session
	// middleware and the cache key namespace).
	cookieName string
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service, cookieName string) *Handler {
	return &Handler{authService: service, cookieName: cookieName}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /signup         : Creates a new account and sends a verification mail.
//   - POST /signin         : Authenticates and sets the session cookie.
//   - POST /recover        : Sends a password recovery mail.
//   - GET  /confirm-email  : Redeems a verification token (query param).
//   - POST /reset-password : Redeems a recovery token (query param).
//   - GET  /token          : Introspects any signed action token.
//   - GET  /session        : Returns the authenticated user (protected).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/signup", handler.signUp)
	router.Post("/signin", handler.signIn)
	router.Post("/recover", handler.recover)
	router.Get("/confirm-email", handler.confirmEmail)
	router.Post("/reset-password", handler.resetPassword)
	router.Get("/token", handler.introspectToken)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/session", handler.session)
	})

	return router
}

// # Request Payloads

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type recoverRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

/*
SignUp handles the creation of a new user account.

POST /api/v1/auth/signup

Description: Validates input, checks for email conflicts, persists the
account, and fires the verification side effects.

Request:
  - Body: signUpRequest (Email, Password, Username)

Response:
  - 201: User: Created user profile
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: Email already registered
*/
func (handler *Handler) signUp(writer http.ResponseWriter, request *http.Request) {
	var input signUpRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8).
		Required(FieldUsername, input.Username).
		MinLen(FieldUsername, input.Username, 3)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.SignUp(request.Context(), SignUpInput{
		Email:    input.Email,
		Password: input.Password,
		Username: input.Username,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
SignIn authenticates a user and establishes a session.

POST /api/v1/auth/signin

Description: Verifies credentials and injects the encrypted session cookie
using the session's computed cookie attributes.

Request:
  - Body: signInRequest (Email, Password)

Response:
  - 200: User: Authenticated profile
  - 401: ErrUnauthorized: Invalid credentials (uniform message)
  - 403: ErrForbidden: Account suspended or disabled
*/
func (handler *Handler) signIn(writer http.ResponseWriter, request *http.Request) {
	var input signInRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.authService.SignIn(request.Context(), SignInInput{
		Email:     input.Email,
		Password:  input.Password,
		IP:        middleware.RealIP(request),
		UserAgent: request.UserAgent(),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Cookie attributes mirror the stored session record exactly.
	http.SetCookie(writer, &http.Cookie{
		Name:     handler.cookieName,
		Value:    result.CookiePayload,
		Path:     result.Cookie.Path,
		Expires:  result.Cookie.Expires,
		Secure:   result.Cookie.Secure,
		HttpOnly: result.Cookie.HTTPOnly,
		SameSite: http.SameSiteStrictMode,
	})

	respond.OK(writer, result.User)
}

/*
Recover initiates the password recovery flow.

POST /api/v1/auth/recover

Description: Looks up the account by email and sends a recovery mail. An
unknown email is reported as not found.

Request:
  - Body: recoverRequest (Email)

Response:
  - 200: Success: Recovery mail enqueued
  - 404: ErrNotFound: Email is not registered
*/
func (handler *Handler) recover(writer http.ResponseWriter, request *http.Request) {
	var input recoverRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Recover(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Recovery email sent")
}

/*
ConfirmEmail redeems a verification token from the mailed link.

GET /api/v1/auth/confirm-email?token=...

Response:
  - 200: Success: Email verified
  - 400: ErrValidation: Missing token or wrong token type
  - 401: ErrUnauthorized: Expired or unknown token
*/
func (handler *Handler) confirmEmail(writer http.ResponseWriter, request *http.Request) {
	token, err := requestutil.QueryToken(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ConfirmEmail(request.Context(), token); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Email verified successfully")
}

/*
ResetPassword redeems a recovery token and sets a new password.

POST /api/v1/auth/reset-password?token=...

Request:
  - Body: resetPasswordRequest (Password)

Response:
  - 200: Success: Password updated
  - 400: ErrValidation: Weak password, missing token, or wrong token type
  - 401: ErrUnauthorized: Expired or unknown token
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	token, err := requestutil.QueryToken(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input resetPasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ResetPassword(request.Context(), token, input.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Password updated successfully")
}

/*
IntrospectToken resolves the owner of any valid signed action token.

GET /api/v1/auth/token?token=...

Description: Signature and expiry check only, no type restriction and no
mutation. Lets clients test whether a mailed link is still redeemable.

Response:
  - 200: User: Owning account
  - 401: ErrUnauthorized: Invalid, expired, or orphaned token
*/
func (handler *Handler) introspectToken(writer http.ResponseWriter, request *http.Request) {
	token, err := requestutil.QueryToken(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.IntrospectToken(request.Context(), token)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
Session returns the account behind the current authenticated session.

GET /api/v1/auth/session

Response:
  - 200: User: Authenticated profile
  - 401: ErrUnauthorized: No valid session cookie
*/
func (handler *Handler) session(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.CurrentUser(request.Context(), principal)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}
