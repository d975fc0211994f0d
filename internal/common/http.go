package common

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/samber/lo"
)

const (
	methodsSeparator = ", "

	multiPartFormMaxMemory   = 32 << 20
	multiPartFormContentType = "multipart/form-data"

	accessControlAllowOriginHeader  = "Access-Control-Allow-Origin"
	accessControlAllowMethodsHeader = "Access-Control-Allow-Methods"
	accessControlAllowHeadersHeader = "Access-Control-Allow-Headers"
	contentTypeHeader               = "Content-Type"

	allowedOrigins = "*"
	allowedHeaders = "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Method"

	jsonContentType = "application/json"
)

type FormArgumentHandler func(http.ResponseWriter, *http.Request) error
type FormArgumentValidator func(*http.Request) error

// FormArgument binds validation and handling of a single form argument.
// Arguments are handled in the order specified by FormArguments, not in the order of the request body.
type FormArgument struct {
	Name     string
	Handle   FormArgumentHandler
	Validate FormArgumentValidator
}

type FormArguments []FormArgument

type FormResponse struct {
	HandlerErrors
	Payload interface{} `json:"payload,omitempty"`
}

type HandlerErrors struct {
	ArgumentErrors map[string]string `json:"argumentErrors"`
	GeneralError   string            `json:"generalError"`
}

// PayloadProvider returns a payload appended to the response after all arguments were handled successfully.
type PayloadProvider func() interface{}

// MethodHandlers specifiy map between http method and respective handler function.
type MethodHandlers map[string]http.HandlerFunc

// PathHandlerConfig specifies per-path behavior for path handling middleware.
type PathHandlerConfig struct {
	MethodHandlers
	AllowCORS bool
}

// PathHandler returns a function acting as a middleware before handling specified path.
// HEAD is answered with headers only for paths serving GET, OPTIONS lists methods for CORS preflight.
func PathHandler(cfg PathHandlerConfig) http.HandlerFunc {
	methods := allowedMethods(cfg.MethodHandlers)

	return func(res http.ResponseWriter, req *http.Request) {
		if cfg.AllowCORS {
			res.Header().Set(accessControlAllowOriginHeader, allowedOrigins)
		}

		switch req.Method {
		case http.MethodOptions:
			res.Header().Set(accessControlAllowMethodsHeader, strings.Join(methods, methodsSeparator))
			res.Header().Set(accessControlAllowHeadersHeader, allowedHeaders)
		case http.MethodHead:
			if _, ok := cfg.MethodHandlers[http.MethodGet]; !ok {
				res.WriteHeader(http.StatusNotFound)
				return
			}

			res.WriteHeader(http.StatusOK)
		default:
			handler, ok := cfg.MethodHandlers[req.Method]
			if !ok {
				res.WriteHeader(http.StatusMethodNotAllowed)
				return
			}

			handler(res, req)
		}
	}
}

// allowedMethods returns sorted methods of handlers, OPTIONS included.
func allowedMethods(handlers MethodHandlers) []string {
	methods := append(lo.Keys(handlers), http.MethodOptions)
	sort.Strings(methods)

	return methods
}

// CreateFormHandler returns handler function responsible for correct validation and routing of arguments to their handlers.
// No argument is handled unless all of them are valid. Handling stops at the first failing handler.
// When payload is not nil, its result is sent back as a "payload" field after successful handling.
func CreateFormHandler(arguments FormArguments, payload PayloadProvider) http.HandlerFunc {
	return func(res http.ResponseWriter, req *http.Request) {
		handlers, handlerErrors := validateFormRequest(req, arguments)
		response := FormResponse{HandlerErrors: handlerErrors}
		if handlerErrors.GeneralError != "" || len(handlerErrors.ArgumentErrors) > 0 {
			WriteJSON(res, http.StatusBadRequest, response)
			return
		}

		for _, handle := range handlers {
			if err := handle(res, req); err != nil {
				response.GeneralError = err.Error()
				WriteJSON(res, http.StatusInternalServerError, response)
				return
			}
		}

		if payload != nil {
			response.Payload = payload()
		}
		WriteJSON(res, http.StatusOK, response)
	}
}

// WriteJSON encodes payload and writes it with the status code.
// Encoding failure results in 500 with a plain text explanation.
func WriteJSON(res http.ResponseWriter, status int, payload interface{}) {
	out, err := json.Marshal(payload)
	if err != nil {
		res.WriteHeader(http.StatusInternalServerError)
		res.Write([]byte(fmt.Sprintf("could not encode json payload: %s", err)))

		return
	}

	res.Header().Set(contentTypeHeader, jsonContentType)
	res.WriteHeader(status)
	res.Write(out)
}

// validateFormRequest parses the form and returns handlers of arguments present in the request, in the order of arguments.
// Unknown arguments and failed validations are reported per argument name, unparsable body as a general error.
func validateFormRequest(req *http.Request, arguments FormArguments) ([]FormArgumentHandler, HandlerErrors) {
	handlerErrors := HandlerErrors{
		ArgumentErrors: map[string]string{},
	}

	if err := parseForm(req); err != nil {
		handlerErrors.GeneralError = fmt.Sprintf("could not parse form data: %s", err)

		return nil, handlerErrors
	}

	known := lo.SliceToMap(arguments, func(argument FormArgument) (string, bool) {
		return argument.Name, true
	})
	for argName := range req.PostForm {
		if !known[argName] {
			handlerErrors.ArgumentErrors[argName] = fmt.Sprintf("the %s argument handler is not defined", argName)
		}
	}

	var handlers []FormArgumentHandler
	for _, argument := range arguments {
		if !req.PostForm.Has(argument.Name) {
			continue
		}

		if argument.Validate != nil {
			if err := argument.Validate(req); err != nil {
				handlerErrors.ArgumentErrors[argument.Name] = fmt.Sprintf("the %s argument is invalid: %s", argument.Name, err)
				continue
			}
		}

		if argument.Handle != nil {
			handlers = append(handlers, argument.Handle)
		}
	}

	return handlers, handlerErrors
}

func parseForm(req *http.Request) error {
	if strings.HasPrefix(req.Header.Get(contentTypeHeader), multiPartFormContentType) {
		return req.ParseMultipartForm(multiPartFormMaxMemory)
	}

	return req.ParseForm()
}
