package feed

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	mid "DevLink/middleware"
	feedsrv "DevLink/module/feed/service"
	"DevLink/tools/errs"
)

// Handler exposes the feed core over HTTP. Write endpoints drive the cache
// invalidation + fan-out described by the service; the timeline endpoint is
// the cache-first read path.
type Handler struct {
	feed *feedsrv.Feed
}

func NewHandler(feed *feedsrv.Feed) *Handler {
	return &Handler{feed: feed}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/posts/timeline", h.GetTimeline)
	r.POST("/posts", h.CreatePost)
	r.POST("/posts/:id/like", h.LikePost)
	r.POST("/posts/:id/comments", h.CommentPost)
	r.POST("/users/:id/follow", h.Follow)
	r.DELETE("/users/:id/follow", h.Unfollow)
}

// GetTimeline GET /posts/timeline?cursor=&pageSize=
func (h *Handler) GetTimeline(c *gin.Context) {
	userID := mid.CallerID(c)
	cursor := c.Query("cursor")

	pageSize := h.feed.DefaultPageSize()
	if raw := c.Query("pageSize"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(c, errs.ErrInvalidArgument.WrapMsg("pageSize not a number"))
			return
		}
		pageSize = n
	}

	payload, err := h.feed.GetTimeline(c.Request.Context(), userID, cursor, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", payload)
}

type createPostRequest struct {
	Content           string   `json:"content"`
	Hashtags          []string `json:"hashtags"`
	MediaURLs         []string `json:"media_urls"`
	ProjectLink       string   `json:"project_link"`
	IsProjectShowcase bool     `json:"is_project_showcase"`
}

// CreatePost POST /posts
func (h *Handler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errs.ErrInvalidArgument.WrapMsg("invalid request body"))
		return
	}
	p, err := h.feed.CreatePost(c.Request.Context(), mid.CallerID(c), feedsrv.CreatePostParams{
		Content:           req.Content,
		Hashtags:          req.Hashtags,
		MediaURLs:         req.MediaURLs,
		ProjectLink:       req.ProjectLink,
		IsProjectShowcase: req.IsProjectShowcase,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// LikePost POST /posts/:id/like
func (h *Handler) LikePost(c *gin.Context) {
	added, err := h.feed.LikePost(c.Request.Context(), c.Param("id"), mid.CallerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": added})
}

// CommentPost POST /posts/:id/comments
func (h *Handler) CommentPost(c *gin.Context) {
	commentID, err := h.feed.CommentPost(c.Request.Context(), c.Param("id"), mid.CallerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment_id": commentID})
}

// Follow POST /users/:id/follow
func (h *Handler) Follow(c *gin.Context) {
	if err := h.feed.Follow(c.Request.Context(), mid.CallerID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "followed"})
}

// Unfollow DELETE /users/:id/follow
func (h *Handler) Unfollow(c *gin.Context) {
	if err := h.feed.Unfollow(c.Request.Context(), mid.CallerID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "unfollowed"})
}

// writeError maps the error taxonomy onto HTTP. Store outages come back
// retryable; cache outages never reach this point.
func writeError(c *gin.Context, err error) {
	var ce *errs.CodeError
	if !errors.As(err, &ce) {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "internal error"})
		return
	}
	switch ce.Code {
	case errs.CodeInvalidArgument:
		c.JSON(http.StatusBadRequest, ce)
	case errs.CodeNotFound:
		c.JSON(http.StatusNotFound, ce)
	case errs.CodeStoreUnavailable:
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, ce)
	default:
		c.JSON(http.StatusInternalServerError, ce)
	}
}
