package model

import "time"

const PostTableName = "posts"

// Post 消息主体：创建后内容不可变，仅互动字段（likes/comments）可追加。
type Post struct {
	ID       string `bson:"_id" json:"id"` // snowflake string，时间有序
	AuthorID string `bson:"author_id" json:"author_id"`
	Content  string `bson:"content" json:"content"`

	// 扩展字段（项目展示向）
	Hashtags          []string `bson:"hashtags,omitempty" json:"hashtags,omitempty"`
	MediaURLs         []string `bson:"media_urls,omitempty" json:"media_urls,omitempty"`
	ProjectLink       string   `bson:"project_link,omitempty" json:"project_link,omitempty"`
	IsProjectShowcase bool     `bson:"is_project_showcase,omitempty" json:"is_project_showcase,omitempty"`

	// 互动：likes 去重集合；comments 有序引用列表
	Likes    []string `bson:"likes" json:"likes"`
	Comments []string `bson:"comments" json:"comments"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Summary 时间线里展示用的浓缩视图。
type Summary struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"author_id"`
	Content      string    `json:"content"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
}

func (p *Post) Summary() Summary {
	return Summary{
		ID:           p.ID,
		AuthorID:     p.AuthorID,
		Content:      p.Content,
		LikeCount:    len(p.Likes),
		CommentCount: len(p.Comments),
		CreatedAt:    p.CreatedAt,
	}
}
