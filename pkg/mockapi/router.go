// Package mockapi provides a tiny router for standing in for external HTTP
// APIs in tests. Endpoints are registered with FastAPI-style path templates
// and the router can serve both as an http.Handler and as an
// http.RoundTripper plugged into a client under test.
package mockapi

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/genomearc/servicekit/pkg/httpyerr"
)

// HandlerFunc handles a matched request. Path variables are available via
// Vars and IntVar.
type HandlerFunc func(w http.ResponseWriter, r *http.Request)

type route struct {
	pattern *regexp.Regexp
	handler HandlerFunc
}

// Router dispatches requests to registered endpoints by method and path
// template.
type Router struct {
	routes map[string][]route
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{routes: make(map[string][]route)}
}

var pathParamPattern = regexp.MustCompile(`\{[^/{}]+\}`)

// compilePattern turns a path template like /work-packages/{package_id}
// into an anchored regexp with a named group per template variable.
func compilePattern(path string) (*regexp.Regexp, error) {
	quoted := regexp.QuoteMeta(path)
	// QuoteMeta escapes the braces, undo that before replacing the params.
	quoted = strings.ReplaceAll(quoted, `\{`, `{`)
	quoted = strings.ReplaceAll(quoted, `\}`, `}`)
	expr := pathParamPattern.ReplaceAllStringFunc(quoted, func(param string) string {
		name := strings.Trim(param, "{}")
		return fmt.Sprintf(`(?P<%s>[^/]+)`, name)
	})
	return regexp.Compile("^" + expr + "$")
}

// Handle registers a handler for the given method and path template.
// It panics on an invalid template, as routes are wired at test setup time.
func (rt *Router) Handle(method, path string, handler HandlerFunc) {
	pattern, err := compilePattern(path)
	if err != nil {
		panic(fmt.Sprintf("mockapi: invalid path template %q: %v", path, err))
	}
	rt.routes[method] = append(rt.routes[method], route{pattern: pattern, handler: handler})
}

func (rt *Router) Get(path string, handler HandlerFunc)    { rt.Handle(http.MethodGet, path, handler) }
func (rt *Router) Post(path string, handler HandlerFunc)   { rt.Handle(http.MethodPost, path, handler) }
func (rt *Router) Put(path string, handler HandlerFunc)    { rt.Handle(http.MethodPut, path, handler) }
func (rt *Router) Patch(path string, handler HandlerFunc)  { rt.Handle(http.MethodPatch, path, handler) }
func (rt *Router) Delete(path string, handler HandlerFunc) { rt.Handle(http.MethodDelete, path, handler) }

type varsKey struct{}

// Vars returns the path variables matched for the request.
func Vars(r *http.Request) map[string]string {
	vars, _ := r.Context().Value(varsKey{}).(map[string]string)
	return vars
}

// IntVar returns the named path variable as an integer. On failure it
// returns an error that renders as a 422 "malformedUrl" response.
func IntVar(r *http.Request, name string) (int, *httpyerr.Error) {
	value := Vars(r)[name]
	number, err := strconv.Atoi(value)
	if err != nil {
		return 0, &httpyerr.Error{
			StatusCode:  http.StatusUnprocessableEntity,
			ExceptionID: "malformedUrl",
			Description: fmt.Sprintf("Unable to cast %q to int for path %q", value, r.URL.Path),
			Data: map[string]any{
				"value": value,
				"path":  r.URL.Path,
			},
		}
	}
	return number, nil
}

// BoolVar returns the named path variable as a boolean. On failure it
// returns an error that renders as a 422 "malformedUrl" response.
func BoolVar(r *http.Request, name string) (bool, *httpyerr.Error) {
	value := Vars(r)[name]
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, &httpyerr.Error{
			StatusCode:  http.StatusUnprocessableEntity,
			ExceptionID: "malformedUrl",
			Description: fmt.Sprintf("Unable to cast %q to bool for path %q", value, r.URL.Path),
			Data: map[string]any{
				"value": value,
				"path":  r.URL.Path,
			},
		}
	}
	return parsed, nil
}

// ServeHTTP dispatches the request to the first endpoint whose pattern
// matches. Unmatched requests get a 404 "pageNotFound" response.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for _, route := range rt.routes[r.Method] {
		match := route.pattern.FindStringSubmatch(r.URL.Path)
		if match == nil {
			continue
		}
		vars := make(map[string]string)
		for i, name := range route.pattern.SubexpNames() {
			if name != "" {
				vars[name] = match[i]
			}
		}
		route.handler(w, r.WithContext(context.WithValue(r.Context(), varsKey{}, vars)))
		return
	}
	httpyerr.Respond(w, &httpyerr.Error{
		StatusCode:  http.StatusNotFound,
		ExceptionID: "pageNotFound",
		Description: fmt.Sprintf("No registered path found for url %q and method %q", r.URL.Path, r.Method),
		Data: map[string]any{
			"url":    r.URL.Path,
			"method": r.Method,
		},
	})
}
