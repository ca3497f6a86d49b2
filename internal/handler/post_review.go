package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/food-journal-api/internal/middleware"
	"github.com/iliyamo/food-journal-api/internal/model"
	"github.com/iliyamo/food-journal-api/internal/service"
)

// PostReviewHandler exposes post review CRUD.  Mutations require a session;
// the listings are public.
type PostReviewHandler struct {
	Posts   *service.PostReviewService
	Log     *zap.Logger
	Timeout time.Duration
	// OnChange runs after every successful mutation.  The router uses it to
	// drop cached listings.
	OnChange func(ctx context.Context)
}

func NewPostReviewHandler(posts *service.PostReviewService, log *zap.Logger, timeout time.Duration) *PostReviewHandler {
	return &PostReviewHandler{Posts: posts, Log: log, Timeout: timeout}
}

type postViewResp struct {
	ID             uint64    `json:"id"`
	UserID         uint64    `json:"user_id"`
	FoodName       string    `json:"food_name"`
	Image          *string   `json:"image"`
	RestaurantName *string   `json:"restaurant_name"`
	Rating         float64   `json:"rating"`
	Review         string    `json:"review"`
	Tags           *string   `json:"tags"`
	CreatedAt      time.Time `json:"created_at"`
	Username       string    `json:"username"`
	ProfilePic     *string   `json:"profile_pic"`
}

func toViewResp(views []model.PostView) []postViewResp {
	out := make([]postViewResp, 0, len(views))
	for _, v := range views {
		out = append(out, postViewResp{
			ID:             v.ID,
			UserID:         v.UserID,
			FoodName:       v.FoodName,
			Image:          v.Image,
			RestaurantName: v.RestaurantName,
			Rating:         v.Rating,
			Review:         v.Review,
			Tags:           v.Tags,
			CreatedAt:      v.CreatedAt,
			Username:       v.Username,
			ProfilePic:     v.ProfilePic,
		})
	}
	return out
}

// queryID reads a required positive integer query parameter.
func queryID(c echo.Context, name string) (uint64, bool) {
	raw := strings.TrimSpace(c.QueryParam(name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func (h *PostReviewHandler) changed(ctx context.Context) {
	if h.OnChange != nil {
		h.OnChange(ctx)
	}
}

// Create: POST /post_review/create_post_review.
func (h *PostReviewHandler) Create(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": service.MsgInvalidCredentials})
	}
	var req service.PostInput
	if msg, ok := decode(c, &req); !ok {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	id, err := h.Posts.Create(ctx, uid, req)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	h.changed(ctx)
	return c.JSON(http.StatusOK, echo.Map{"message": fmt.Sprintf("Post %d created", id)})
}

// Update: PATCH /post_review/update_post_review?post_id=N.  Every field of
// the post is replaced.
func (h *PostReviewHandler) Update(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": service.MsgInvalidCredentials})
	}
	postID, ok := queryID(c, "post_id")
	if !ok {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": "post_id: must be a positive integer"})
	}
	var req service.PostInput
	if msg, ok := decode(c, &req); !ok {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	if err := h.Posts.Update(ctx, uid, postID, req); err != nil {
		return writeError(c, h.Log, err)
	}
	h.changed(ctx)
	return c.JSON(http.StatusOK, echo.Map{"message": fmt.Sprintf("Post %d updated", postID)})
}

// Delete: DELETE /post_review/delete_post_review?post_id=N.
func (h *PostReviewHandler) Delete(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": service.MsgInvalidCredentials})
	}
	postID, ok := queryID(c, "post_id")
	if !ok {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": "post_id: must be a positive integer"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	if err := h.Posts.Delete(ctx, uid, postID); err != nil {
		return writeError(c, h.Log, err)
	}
	h.changed(ctx)
	return c.JSON(http.StatusOK, echo.Map{"message": fmt.Sprintf("Post %d deleted", postID)})
}

// List: GET /post_review/get_post_review.
func (h *PostReviewHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	views, err := h.Posts.ListAll(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toViewResp(views))
}

// ListByUser: GET /post_review/get_posts_by_id?user_id=N.
func (h *PostReviewHandler) ListByUser(c echo.Context) error {
	userID, ok := queryID(c, "user_id")
	if !ok {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": "user_id: must be a positive integer"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	views, err := h.Posts.ListByUser(ctx, userID)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toViewResp(views))
}
