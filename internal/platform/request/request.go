// Copyright (c) 2026 Kotae. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/kotae/internal/platform/validate"
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
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Query retrieves a named query-string parameter from the request.
*/
func Query(request *http.Request, name string) string {
	return request.URL.Query().Get(name)
}

/*
ParamInt retrieves a named URL parameter and parses it as an int.
*/
func ParamInt(request *http.Request, name string) (int, error) {
	return strconv.Atoi(chi.URLParam(request, name))
}

/*
ParamInt64 retrieves a named URL parameter and parses it as an int64.
*/
func ParamInt64(request *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(request, name), 10, 64)
}

/*
QueryInt retrieves a named query-string parameter and parses it as an int.
*/
func QueryInt(request *http.Request, name string) (int, error) {
	return strconv.Atoi(request.URL.Query().Get(name))
}

/*
FormInt64 retrieves a named form field and parses it as an int64.
*/
func FormInt64(request *http.Request, name string) (int64, error) {
	return strconv.ParseInt(request.FormValue(name), 10, 64)
}
