// Copyright (c) 2026 Sentra. All rights reserved.
// Author: dev@sentra.io

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"

	"github.com/sentra-app/sentra/internal/platform/apperr"
	"github.com/sentra-app/sentra/internal/platform/ctxutil"
	"github.com/sentra-app/sentra/internal/platform/sec"
	"github.com/sentra-app/sentra/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
QueryToken retrieves the single-valued "token" query parameter.

Description: Action-token endpoints receive the signed token as a query
parameter on the link embedded in outbound mail. A missing or repeated
parameter is a malformed request and is rejected before any verification.

Returns:
  - string: The raw signed token
  - error: apperr.NotFound if absent or repeated
*/
func QueryToken(request *http.Request) (string, error) {
	values, ok := request.URL.Query()["token"]
	if !ok || len(values) != 1 || values[0] == "" {
		return "", apperr.NotFound("Token")
	}
	return values[0], nil
}

/*
Principal extracts the authenticated session principal from the request context.

Returns nil if the request is not authenticated.
*/
func Principal(request *http.Request) *sec.Principal {
	return ctxutil.GetPrincipal(request.Context())
}

/*
RequiredPrincipal ensures the request is authenticated and returns the principal.

Returns:
  - *sec.Principal: The authenticated session principal
  - error: apperr.Unauthorized if the request is not authenticated
*/
func RequiredPrincipal(request *http.Request) (*sec.Principal, error) {

	// Get the session principal
	principal := ctxutil.GetPrincipal(request.Context())

	// If the user is not authenticated, return an error
	if principal == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}

	return principal, nil
}
