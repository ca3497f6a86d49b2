package model

import "time"

// RevokedToken models an entry in the `blacklist` table.  A row means the
// session token in AccessToken must be rejected even though its signature
// and expiry are still valid.  Rows are never updated; the cleanup job
// deletes them once the token they name has expired on its own.
//
// Fields:
//
//	ID          – primary key identifier.
//	AccessToken – the raw token string exactly as presented at logout.
//	CreatedAt   – when the token was revoked.
type RevokedToken struct {
	ID          uint64    // blacklist.id
	AccessToken string    // blacklist.access_token
	CreatedAt   time.Time // blacklist.created_at
}
