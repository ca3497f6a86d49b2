// Package queue defines message payloads exchanged over the message broker
// and the publisher and consumer that move them.
package queue

import (
	"time"

	"github.com/iliyamo/food-journal-api/internal/model"
)

// Event types carried in PostReviewEvent.Type.
const (
	EventPostCreated = "post_review.created"
	EventPostUpdated = "post_review.updated"
	EventPostDeleted = "post_review.deleted"
)

// PostReviewEvent is published after a post review is created, updated or
// deleted.  Deletes carry only the ids.
type PostReviewEvent struct {
	Type           string   `json:"type"`
	PostID         uint64   `json:"post_id"`
	UserID         uint64   `json:"user_id"`
	FoodName       string   `json:"food_name,omitempty"`
	RestaurantName string   `json:"restaurant_name,omitempty"`
	Rating         *float64 `json:"rating,omitempty"`
	OccurredAt     string   `json:"occurred_at"`
}

// NewPostReviewEvent builds an event of typ for p, stamped now.
func NewPostReviewEvent(typ string, p *model.PostReview) PostReviewEvent {
	ev := PostReviewEvent{
		Type:       typ,
		PostID:     p.ID,
		UserID:     p.UserID,
		FoodName:   p.FoodName,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if p.RestaurantName != nil {
		ev.RestaurantName = *p.RestaurantName
	}
	if typ != EventPostDeleted {
		r := p.Rating
		ev.Rating = &r
	}
	return ev
}
