package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers the shortener, statistics and session routes.
func RegisterRoutes(api huma.API, urls *URLHandler, links *LinksHandler, sessions *SessionHandler) {
	// POST /shorten - Create short URL from a form submission
	huma.Register(api, huma.Operation{
		OperationID: "shorten",
		Method:      http.MethodPost,
		Path:        "/shorten",
		Summary:     "Create short URL",
		Description: "Shortens the URL in the `link` form field and returns the short URL as plain text.",
		Tags:        []string{"URLs"},
	}, urls.Shorten)

	// GET /{code} - Redirect to original URL, counting the visit
	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{code}",
		Summary:     "Redirect to original URL",
		Description: "Records a click and redirects to the original URL associated with the short code.",
		Tags:        []string{"URLs"},
		Errors:      []int{http.StatusNotFound},
	}, urls.Redirect)

	// HEAD /{code} - Same as GET, the visit is counted
	huma.Register(api, huma.Operation{
		OperationID: "redirect-head",
		Method:      http.MethodHead,
		Path:        "/{code}",
		Summary:     "Redirect to original URL (HEAD)",
		Description: "Behaves like GET /{code}: records a click and redirects.",
		Tags:        []string{"URLs"},
		Errors:      []int{http.StatusNotFound},
	}, urls.Redirect)

	huma.Register(api, huma.Operation{
		OperationID: "list-links",
		Method:      http.MethodGet,
		Path:        "/links",
		Summary:     "List own links",
		Description: "Lists the links created by the authenticated owner, newest first.",
		Tags:        []string{"Statistics"},
		Errors:      []int{http.StatusUnauthorized},
	}, links.List)

	huma.Register(api, huma.Operation{
		OperationID: "link-detail",
		Method:      http.MethodGet,
		Path:        "/links/{code}",
		Summary:     "Link statistics",
		Description: "Returns the most recent clicks and the clicks per day over the last 31 days.",
		Tags:        []string{"Statistics"},
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound},
	}, links.Detail)

	huma.Register(api, huma.Operation{
		OperationID: "create-session",
		Method:      http.MethodPost,
		Path:        "/session",
		Summary:     "Issue owner token",
		Description: "Creates a new owner identity and stores its token in a cookie.",
		Tags:        []string{"Session"},
	}, sessions.Create)
}
