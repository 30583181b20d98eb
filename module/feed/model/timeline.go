package model

import (
	postmodel "DevLink/module/post/model"
)

// TimelinePage is one page of the merged reverse-chronological feed.
//
// NextCursor is the creation instant (unix millis) of the last post on the
// page; Terminal marks the distinct "nothing older exists" state — an empty
// page carries no cursor at all.
type TimelinePage struct {
	Posts      []postmodel.Summary `json:"posts"`
	NextCursor string              `json:"next_cursor,omitempty"`
	Terminal   bool                `json:"terminal"`
}
