package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"DevLink/module/post/model"
	"DevLink/tools/errs"
)

// PostStore is the durable source of truth for posts and their engagement
// counters. All engagement writes are single-document atomic updates; callers
// never read-modify-write.
type PostStore struct {
	coll *mongo.Collection
}

func NewPostStore(db *mongo.Database) *PostStore {
	return &PostStore{coll: db.Collection(model.PostTableName)}
}

func (s *PostStore) Insert(ctx context.Context, p *model.Post) error {
	if p.Likes == nil {
		p.Likes = []string{}
	}
	if p.Comments == nil {
		p.Comments = []string{}
	}
	if _, err := s.coll.InsertOne(ctx, p); err != nil {
		return errs.ErrStoreUnavailable.WrapMsg("insert post", "post_id", p.ID, "err", err)
	}
	return nil
}

func (s *PostStore) GetByID(ctx context.Context, postID string) (*model.Post, error) {
	var p model.Post
	err := s.coll.FindOne(ctx, bson.M{"_id": postID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound.WrapMsg("post not found", "post_id", postID)
	}
	if err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("find post", "post_id", postID, "err", err)
	}
	return &p, nil
}

// AddLike appends userID to the like set. $addToSet keeps the write atomic
// per document: two concurrent likes both land, a duplicate is a no-op.
// Returns true when the like was newly added.
func (s *PostStore) AddLike(ctx context.Context, postID, userID string) (bool, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": postID},
		bson.M{"$addToSet": bson.M{"likes": userID}},
	)
	if err != nil {
		return false, errs.ErrStoreUnavailable.WrapMsg("add like", "post_id", postID, "err", err)
	}
	if res.MatchedCount == 0 {
		return false, errs.ErrNotFound.WrapMsg("post not found", "post_id", postID)
	}
	return res.ModifiedCount > 0, nil
}

// AddComment appends a comment reference, preserving arrival order.
func (s *PostStore) AddComment(ctx context.Context, postID, commentID string) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": postID},
		bson.M{"$push": bson.M{"comments": commentID}},
	)
	if err != nil {
		return errs.ErrStoreUnavailable.WrapMsg("add comment", "post_id", postID, "err", err)
	}
	if res.MatchedCount == 0 {
		return errs.ErrNotFound.WrapMsg("post not found", "post_id", postID)
	}
	return nil
}

// ListByAuthors returns up to limit posts authored by any of authorIDs with
// created_at strictly before the cursor instant, newest first. Ties on
// created_at fall back to descending _id, so pagination is a total order.
func (s *PostStore) ListByAuthors(ctx context.Context, authorIDs []string, before time.Time, limit int) ([]*model.Post, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	filter := bson.M{
		"author_id":  bson.M{"$in": authorIDs},
		"created_at": bson.M{"$lt": before},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("list posts", "err", err)
	}
	defer cur.Close(ctx)

	var posts []*model.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("decode posts", "err", err)
	}
	return posts, nil
}

// EnsureIndexes creates the compound index backing ListByAuthors.
func (s *PostStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "author_id", Value: 1},
			{Key: "created_at", Value: -1},
			{Key: "_id", Value: -1},
		},
	})
	return errs.WrapMsg(err, "ensure post indexes")
}
