package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/food-journal-api/internal/handler"    // handlers implementing each endpoint
	"github.com/iliyamo/food-journal-api/internal/middleware" // bearer header extraction for logout
)

// APIPrefix is the path every versioned endpoint lives under.
const APIPrefix = "/api/v1"

// RegisterRoutes registers routes that do not require authentication and sit
// outside the versioned API: the service banner and the health check.
func RegisterRoutes(e *echo.Echo, env string) {
	e.GET("/", handler.Root(env))
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the account endpoints.  create_user and login are
// open; logout only needs a bearer header; the rest run behind requireAuth.
func RegisterAuth(api *echo.Group, a *handler.AuthHandler, requireAuth echo.MiddlewareFunc) {
	g := api.Group("/auth")
	g.POST("/create_user", a.CreateUser)
	g.POST("/login", a.Login)

	g.PATCH("/update_user", a.UpdateUser, requireAuth)
	g.GET("/get_user", a.GetUser, requireAuth)
	g.POST("/logout", a.Logout, middleware.BearerToken())
}

// RegisterPostReview registers the post review endpoints.  Mutations need a
// session; the two listings are public and wrapped by cache.
func RegisterPostReview(api *echo.Group, p *handler.PostReviewHandler, requireAuth, cache echo.MiddlewareFunc) {
	g := api.Group("/post_review")
	g.POST("/create_post_review", p.Create, requireAuth)
	g.PATCH("/update_post_review", p.Update, requireAuth)
	g.DELETE("/delete_post_review", p.Delete, requireAuth)

	g.GET("/get_post_review", p.List, cache)
	g.GET("/get_posts_by_id", p.ListByUser, cache)
}
