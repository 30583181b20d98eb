package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"DevLink/tools/errs"
)

// FollowStore is the durable social graph. A follow edge is one row in
// `follows`; followers(B) and following(A) are two reads of the same row, so
// the two views can never drift apart.
type FollowStore struct {
	pool *pgxpool.Pool
}

func NewFollowStore(pool *pgxpool.Pool) *FollowStore {
	return &FollowStore{pool: pool}
}

// Follow records followerID -> followeeID. Idempotent; a repeated follow is
// absorbed by ON CONFLICT. Self-follow is rejected.
func (s *FollowStore) Follow(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return errs.ErrInvalidArgument.WrapMsg("cannot follow yourself", "user_id", followerID)
	}
	_, err := s.pool.Exec(ctx,
		"INSERT INTO follows (follower_id, followee_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		followerID, followeeID,
	)
	if err != nil {
		return errs.ErrStoreUnavailable.WrapMsg("create follow", "err", err)
	}
	return nil
}

// Unfollow removes the edge; removing a non-existent edge is a no-op.
func (s *FollowStore) Unfollow(ctx context.Context, followerID, followeeID string) error {
	_, err := s.pool.Exec(ctx,
		"DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2",
		followerID, followeeID,
	)
	if err != nil {
		return errs.ErrStoreUnavailable.WrapMsg("delete follow", "err", err)
	}
	return nil
}

// Following returns the IDs this user follows.
func (s *FollowStore) Following(ctx context.Context, userID string) ([]string, error) {
	return s.edgeIDs(ctx,
		"SELECT followee_id FROM follows WHERE follower_id = $1 ORDER BY created_at DESC",
		userID)
}

// Followers returns the IDs following this user.
func (s *FollowStore) Followers(ctx context.Context, userID string) ([]string, error) {
	return s.edgeIDs(ctx,
		"SELECT follower_id FROM follows WHERE followee_id = $1 ORDER BY created_at DESC",
		userID)
}

func (s *FollowStore) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2)",
		followerID, followeeID,
	).Scan(&exists)
	if err != nil {
		return false, errs.ErrStoreUnavailable.WrapMsg("check follow", "err", err)
	}
	return exists, nil
}

func (s *FollowStore) edgeIDs(ctx context.Context, query, userID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("query follows", "err", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errs.ErrStoreUnavailable.WrapMsg("scan follow row", "err", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("iterate follows", "err", err)
	}
	return out, nil
}
