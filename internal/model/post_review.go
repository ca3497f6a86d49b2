package model

import "time"

// Rating bounds for a post review, inclusive on both ends.
const (
	MinRating = 1.0
	MaxRating = 5.0
)

// PostReview models a row of the `post` table: one user's review of a dish.
// Posts are removed together with their author (ON DELETE CASCADE).
type PostReview struct {
	ID             uint64    // post.id
	UserID         uint64    // post.user_id, owner of the review
	FoodName       string    // post.food_name
	Image          *string   // post.image (nullable)
	RestaurantName *string   // post.restaurant_name (nullable)
	Rating         float64   // post.rating, within [MinRating, MaxRating]
	Review         string    // post.review
	Tags           *string   // post.tags (nullable, free text)
	CreatedAt      time.Time // post.created_at
}

// PostView is a post joined with the author's public profile fields, as
// returned by the listing endpoints.
type PostView struct {
	PostReview
	Username   string
	ProfilePic *string
}

// ValidRating reports whether r lies in the closed interval [1, 5].
func ValidRating(r float64) bool {
	return r >= MinRating && r <= MaxRating
}
