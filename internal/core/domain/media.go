package domain

import "errors"

// ErrNotFound is returned by repositories when a row does not exist.
var ErrNotFound = errors.New("not found")

// RenditionMedium is the size used for popover images.
const RenditionMedium = "medium"

// Rendition is one stored size of a media attachment. Exactly one of URL
// or ObjectKey is normally set.
type Rendition struct {
	AttachmentID int64  `json:"attachment_id"`
	Size         string `json:"size"`
	URL          string `json:"url,omitempty"`
	ObjectKey    string `json:"object_key,omitempty"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
}
