// Package repository contains data access logic separated from HTTP handlers.
// This file defines the repository for post reviews.  Mutations that depend
// on an ownership or existence check run the check and the write inside one
// transaction, mirroring how the store is used per request.
package repository

import (
	"context"      // context allows passing deadlines and cancellation signals to DB operations
	"database/sql" // sql provides generic database operations and drivers
	"errors"       // errors is used to match sentinel values
	"time"

	"github.com/iliyamo/food-journal-api/internal/model"
)

// PostReviewRepo encapsulates all database queries related to post reviews.
type PostReviewRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewPostReviewRepo constructs a PostReviewRepo with the provided DB handle.
func NewPostReviewRepo(db *sql.DB) *PostReviewRepo {
	return &PostReviewRepo{db: db}
}

const postViewSelect = `SELECT p.id, p.user_id, p.food_name, p.image, p.restaurant_name, p.rating,
	       p.review, p.tags, p.created_at, u.username, u.profile_picture
	  FROM post p
	  JOIN fd_users u ON u.id = p.user_id`

// Create inserts p for p.UserID after confirming that user still exists.
// On success p.ID and p.CreatedAt are populated.  ErrUserNotFound is
// returned when the owner is gone.
func (r *PostReviewRepo) Create(ctx context.Context, p *model.PostReview) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var one int
	if err = tx.QueryRowContext(ctx, `SELECT 1 FROM fd_users WHERE id = ?`, p.UserID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrUserNotFound
		}
		return err
	}

	now := time.Now().UTC().Truncate(time.Second)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO post (user_id, food_name, image, restaurant_name, rating, review, tags, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.FoodName, p.Image, p.RestaurantName, p.Rating, p.Review, p.Tags, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	p.CreatedAt = now
	return nil
}

// UpdateByIDAndOwner overwrites every mutable column of post p.ID with the
// values in p.  ErrNotFound is returned when the post does not exist and
// ErrForbidden when it belongs to someone other than p.UserID.
func (r *PostReviewRepo) UpdateByIDAndOwner(ctx context.Context, p *model.PostReview) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if err = checkOwner(ctx, tx, p.ID, p.UserID); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE post
		    SET food_name = ?, image = ?, restaurant_name = ?, rating = ?, review = ?, tags = ?
		  WHERE id = ?`,
		p.FoodName, p.Image, p.RestaurantName, p.Rating, p.Review, p.Tags, p.ID)
	return err
}

// DeleteByIDAndOwner removes post id if it belongs to ownerID.  The error
// contract matches UpdateByIDAndOwner.
func (r *PostReviewRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if err = checkOwner(ctx, tx, id, ownerID); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM post WHERE id = ?`, id)
	return err
}

func checkOwner(ctx context.Context, tx *sql.Tx, postID, ownerID uint64) error {
	var dbOwnerID uint64
	if err := tx.QueryRowContext(ctx, `SELECT user_id FROM post WHERE id = ?`, postID).Scan(&dbOwnerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if dbOwnerID != ownerID {
		return ErrForbidden
	}
	return nil
}

// List returns up to limit posts with their authors.  No ordering is
// promised beyond whatever the store yields.
func (r *PostReviewRepo) List(ctx context.Context, limit int) ([]model.PostView, error) {
	return r.query(ctx, postViewSelect+` LIMIT ?`, limit)
}

// ListByUser is List restricted to posts owned by userID.
func (r *PostReviewRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]model.PostView, error) {
	return r.query(ctx, postViewSelect+` WHERE p.user_id = ? LIMIT ?`, userID, limit)
}

func (r *PostReviewRepo) query(ctx context.Context, q string, args ...any) ([]model.PostView, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.PostView{}
	for rows.Next() {
		var (
			v                       model.PostView
			image, restaurant, tags sql.NullString
			profilePic              sql.NullString
		)
		if err := rows.Scan(&v.ID, &v.UserID, &v.FoodName, &image, &restaurant, &v.Rating,
			&v.Review, &tags, &v.CreatedAt, &v.Username, &profilePic); err != nil {
			return nil, err
		}
		v.Image = nullString(image)
		v.RestaurantName = nullString(restaurant)
		v.Tags = nullString(tags)
		v.ProfilePic = nullString(profilePic)
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
