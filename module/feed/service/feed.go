package service

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"time"

	feedmodel "DevLink/module/feed/model"
	postmodel "DevLink/module/post/model"
	"DevLink/service/realtime"
	"DevLink/service/storage"
	"DevLink/tools/errs"
	"DevLink/tools/ids"
)

// PostStore is the durable post + engagement source of truth.
type PostStore interface {
	Insert(ctx context.Context, p *postmodel.Post) error
	GetByID(ctx context.Context, postID string) (*postmodel.Post, error)
	AddLike(ctx context.Context, postID, userID string) (bool, error)
	AddComment(ctx context.Context, postID, commentID string) error
	ListByAuthors(ctx context.Context, authorIDs []string, before time.Time, limit int) ([]*postmodel.Post, error)
}

// SocialGraph is the durable follow-edge store.
type SocialGraph interface {
	Follow(ctx context.Context, followerID, followeeID string) error
	Unfollow(ctx context.Context, followerID, followeeID string) error
	Following(ctx context.Context, userID string) ([]string, error)
	Followers(ctx context.Context, userID string) ([]string, error)
}

// PageCache is the timeline page cache; all methods fail soft.
type PageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, payload []byte)
	InvalidateView(ctx context.Context, userID string)
}

// Publisher delivers ephemeral events; it must never touch the stores.
type Publisher interface {
	Publish(channel string, e *realtime.Event)
}

type Conf struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Feed assembles timelines (read path) and drives cache invalidation plus
// event fan-out for every write.
type Feed struct {
	posts PostStore
	graph SocialGraph
	cache PageCache
	pub   Publisher
	gen   *ids.Generator
	conf  Conf
}

func NewFeed(posts PostStore, graph SocialGraph, cache PageCache, pub Publisher, gen *ids.Generator, conf Conf) *Feed {
	if conf.DefaultPageSize <= 0 {
		conf.DefaultPageSize = 20
	}
	if conf.MaxPageSize <= 0 {
		conf.MaxPageSize = 100
	}
	return &Feed{posts: posts, graph: graph, cache: cache, pub: pub, gen: gen, conf: conf}
}

func (f *Feed) DefaultPageSize() int { return f.conf.DefaultPageSize }

// ===== 读路径 =====

// GetTimeline returns the serialized page for (userID, cursor, pageSize).
// Cache-first: a hit is returned verbatim, byte for byte, with no
// re-validation — staleness up to the cache TTL is accepted.
func (f *Feed) GetTimeline(ctx context.Context, userID, cursor string, pageSize int) ([]byte, error) {
	if pageSize <= 0 {
		return nil, errs.ErrInvalidArgument.WrapMsg("pageSize must be positive", "page_size", pageSize)
	}
	if pageSize > f.conf.MaxPageSize {
		pageSize = f.conf.MaxPageSize
	}
	before, err := parseCursor(cursor)
	if err != nil {
		return nil, err
	}

	key := storage.Key(userID, cursor, pageSize)
	if payload, ok := f.cache.Get(ctx, key); ok {
		return payload, nil
	}

	page, err := f.assemble(ctx, userID, before, pageSize)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(page)
	if err != nil {
		return nil, errs.WrapMsg(err, "marshal timeline page")
	}

	// One SET for the whole page, and only while the request is still live:
	// a timed-out assembly caches nothing rather than a partial entry.
	if ctx.Err() == nil {
		f.cache.Set(ctx, key, payload)
	}
	return payload, nil
}

func (f *Feed) assemble(ctx context.Context, userID string, before time.Time, pageSize int) (*feedmodel.TimelinePage, error) {
	following, err := f.graph.Following(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Self posts belong in one's own timeline even with nobody followed.
	authors := append(following, userID)

	posts, err := f.posts.ListByAuthors(ctx, authors, before, pageSize)
	if err != nil {
		return nil, err
	}

	// The store orders the page, but the pagination contract (desc
	// created_at, desc id on ties) is ours — enforce the total order here.
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})

	page := &feedmodel.TimelinePage{Posts: make([]postmodel.Summary, 0, len(posts))}
	for _, p := range posts {
		page.Posts = append(page.Posts, p.Summary())
	}
	if len(posts) == 0 {
		page.Terminal = true
		return page, nil
	}
	last := posts[len(posts)-1]
	page.NextCursor = formatCursor(last.CreatedAt)
	return page, nil
}

// ===== 写路径 =====

type CreatePostParams struct {
	Content           string
	Hashtags          []string
	MediaURLs         []string
	ProjectLink       string
	IsProjectShowcase bool
}

// CreatePost persists the post, eagerly refreshes the author's own view and
// announces it to connected followers. Follower caches are left to TTL.
func (f *Feed) CreatePost(ctx context.Context, authorID string, in CreatePostParams) (*postmodel.Post, error) {
	if in.Content == "" {
		return nil, errs.ErrInvalidArgument.WrapMsg("content is required")
	}
	p := &postmodel.Post{
		ID:                f.gen.NextString(),
		AuthorID:          authorID,
		Content:           in.Content,
		Hashtags:          in.Hashtags,
		MediaURLs:         in.MediaURLs,
		ProjectLink:       in.ProjectLink,
		IsProjectShowcase: in.IsProjectShowcase,
		CreatedAt:         time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := f.posts.Insert(ctx, p); err != nil {
		return nil, err
	}

	// Author must see their own post immediately; everyone else is bounded
	// by the cache TTL.
	f.cache.InvalidateView(ctx, authorID)

	f.pub.Publish(realtime.FollowersChannel(authorID),
		realtime.NewEvent(realtime.EventNewPost, authorID).WithPost(p.ID))
	return p, nil
}

// LikePost appends the actor to the like set (atomic in the store) and
// notifies the post owner. Liking twice, or liking your own post, notifies
// nobody.
func (f *Feed) LikePost(ctx context.Context, postID, actorID string) (bool, error) {
	added, err := f.posts.AddLike(ctx, postID, actorID)
	if err != nil {
		return false, err
	}
	if !added {
		return false, nil
	}
	p, err := f.posts.GetByID(ctx, postID)
	if err != nil {
		// Like landed; notification owner lookup failing is not a caller
		// problem.
		return true, nil
	}
	if p.AuthorID != actorID {
		f.pub.Publish(realtime.UserChannel(p.AuthorID),
			realtime.NewEvent(realtime.EventLike, actorID).WithPost(postID))
	}
	return true, nil
}

// CommentPost appends a comment reference and notifies the post owner.
// Returns the generated comment ID.
func (f *Feed) CommentPost(ctx context.Context, postID, actorID string) (string, error) {
	commentID := f.gen.NextString()
	if err := f.posts.AddComment(ctx, postID, commentID); err != nil {
		return "", err
	}
	if p, err := f.posts.GetByID(ctx, postID); err == nil && p.AuthorID != actorID {
		f.pub.Publish(realtime.UserChannel(p.AuthorID),
			realtime.NewEvent(realtime.EventComment, actorID).WithPost(postID).WithComment(commentID))
	}
	return commentID, nil
}

// Follow records the edge, refreshes the follower's own merged view and
// notifies the followee.
func (f *Feed) Follow(ctx context.Context, followerID, followeeID string) error {
	if err := f.graph.Follow(ctx, followerID, followeeID); err != nil {
		return err
	}
	// The follower's timeline changed shape; their cached pages are now
	// missing the followee's posts.
	f.cache.InvalidateView(ctx, followerID)

	f.pub.Publish(realtime.UserChannel(followeeID),
		realtime.NewEvent(realtime.EventFollow, followerID))
	return nil
}

// Unfollow removes the edge and refreshes the follower's view. No event —
// an unfollow is silent.
func (f *Feed) Unfollow(ctx context.Context, followerID, followeeID string) error {
	if err := f.graph.Unfollow(ctx, followerID, followeeID); err != nil {
		return err
	}
	f.cache.InvalidateView(ctx, followerID)
	return nil
}

// ===== 游标 =====

func parseCursor(cursor string) (time.Time, error) {
	if cursor == "" {
		return time.Now().UTC(), nil
	}
	ms, err := strconv.ParseInt(cursor, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, errs.ErrInvalidArgument.WrapMsg("malformed cursor", "cursor", cursor)
	}
	return time.UnixMilli(ms).UTC(), nil
}

func formatCursor(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
