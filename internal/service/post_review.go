package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/iliyamo/food-journal-api/internal/model"
	"github.com/iliyamo/food-journal-api/internal/queue"
	"github.com/iliyamo/food-journal-api/internal/repository"
)

// MaxPostsToFetch caps every listing.
const MaxPostsToFetch = 20

// PostStore is the persistence used by PostReviewService.  Ownership and
// existence checks happen inside the store's transaction and surface as
// repository.ErrNotFound, repository.ErrForbidden or
// repository.ErrUserNotFound.
type PostStore interface {
	Create(ctx context.Context, p *model.PostReview) error
	UpdateByIDAndOwner(ctx context.Context, p *model.PostReview) error
	DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error
	List(ctx context.Context, limit int) ([]model.PostView, error)
	ListByUser(ctx context.Context, userID uint64, limit int) ([]model.PostView, error)
}

// EventPublisher receives post activity.  Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.PostReviewEvent) error
}

// PostInput is the client-supplied body of a post review.  The request
// validator checks the rating bounds; the service checks them again.
type PostInput struct {
	FoodName       string  `json:"food_name" validate:"required"`
	Image          *string `json:"image"`
	RestaurantName *string `json:"restaurant_name"`
	Rating         float64 `json:"rating" validate:"required,gte=1,lte=5"`
	Review         string  `json:"review" validate:"required"`
	Tags           *string `json:"tags"`
}

// Messages returned to clients.
const (
	MsgPostNotFound     = "Post not found"
	MsgRatingOutOfRange = "Rating must be between 1 and 5"
	MsgPostNotOwned     = "Not authorized to modify this post"
	MsgPostNotAdded     = "Post could not be added"
	MsgPostNotUpdated   = "Post could not be updated"
	MsgPostNotDeleted   = "Post could not be deleted"
	MsgPostsNotFetched  = "Posts could not be retrieved"
)

// PostReviewService implements post CRUD with an ownership gate on every
// mutation.
type PostReviewService struct {
	posts  PostStore
	events EventPublisher
	log    *zap.Logger
}

// NewPostReviewService wires the service.  events may be nil.
func NewPostReviewService(posts PostStore, events EventPublisher, log *zap.Logger) *PostReviewService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PostReviewService{posts: posts, events: events, log: log}
}

// Create stores a new post owned by userID and returns its id.  The user
// must still exist; the token alone is not proof of that.
func (s *PostReviewService) Create(ctx context.Context, userID uint64, in PostInput) (uint64, error) {
	if !model.ValidRating(in.Rating) {
		return 0, newError(KindValidation, MsgRatingOutOfRange)
	}
	p := in.toModel()
	p.UserID = userID
	if err := s.posts.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, newError(KindNotFound, MsgUserNotFound)
		}
		s.log.Error("create post failed", zap.Uint64("user_id", userID), zap.Error(err))
		return 0, internal(MsgPostNotAdded, err)
	}
	s.publish(ctx, queue.EventPostCreated, p)
	return p.ID, nil
}

// Update replaces every mutable field of post postID with in.  Unlike
// profile updates this is a full overwrite, not a merge.
func (s *PostReviewService) Update(ctx context.Context, userID, postID uint64, in PostInput) error {
	if !model.ValidRating(in.Rating) {
		return newError(KindValidation, MsgRatingOutOfRange)
	}
	p := in.toModel()
	p.ID = postID
	p.UserID = userID
	if err := s.posts.UpdateByIDAndOwner(ctx, p); err != nil {
		if e := ownershipError(err); e != nil {
			return e
		}
		s.log.Error("update post failed", zap.Uint64("post_id", postID), zap.Error(err))
		return internal(MsgPostNotUpdated, err)
	}
	s.publish(ctx, queue.EventPostUpdated, p)
	return nil
}

// Delete removes post postID if userID owns it.
func (s *PostReviewService) Delete(ctx context.Context, userID, postID uint64) error {
	if err := s.posts.DeleteByIDAndOwner(ctx, postID, userID); err != nil {
		if e := ownershipError(err); e != nil {
			return e
		}
		s.log.Error("delete post failed", zap.Uint64("post_id", postID), zap.Error(err))
		return internal(MsgPostNotDeleted, err)
	}
	s.publish(ctx, queue.EventPostDeleted, &model.PostReview{ID: postID, UserID: userID})
	return nil
}

// ListAll returns at most MaxPostsToFetch posts.  No posts is an empty
// slice, not an error.
func (s *PostReviewService) ListAll(ctx context.Context) ([]model.PostView, error) {
	views, err := s.posts.List(ctx, MaxPostsToFetch)
	if err != nil {
		return nil, internal(MsgPostsNotFetched, err)
	}
	return capViews(views), nil
}

// ListByUser returns at most MaxPostsToFetch posts owned by userID.
func (s *PostReviewService) ListByUser(ctx context.Context, userID uint64) ([]model.PostView, error) {
	views, err := s.posts.ListByUser(ctx, userID, MaxPostsToFetch)
	if err != nil {
		return nil, internal(MsgPostsNotFetched, err)
	}
	return capViews(views), nil
}

func (s *PostReviewService) publish(ctx context.Context, typ string, p *model.PostReview) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, queue.NewPostReviewEvent(typ, p)); err != nil {
		s.log.Warn("publish post event failed", zap.String("type", typ), zap.Uint64("post_id", p.ID), zap.Error(err))
	}
}

func ownershipError(err error) *Error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return newError(KindNotFound, MsgPostNotFound)
	case errors.Is(err, repository.ErrForbidden):
		return newError(KindForbidden, MsgPostNotOwned)
	}
	return nil
}

func capViews(v []model.PostView) []model.PostView {
	if v == nil {
		return []model.PostView{}
	}
	if len(v) > MaxPostsToFetch {
		return v[:MaxPostsToFetch]
	}
	return v
}

func (in PostInput) toModel() *model.PostReview {
	return &model.PostReview{
		FoodName:       in.FoodName,
		Image:          in.Image,
		RestaurantName: in.RestaurantName,
		Rating:         in.Rating,
		Review:         in.Review,
		Tags:           in.Tags,
	}
}
