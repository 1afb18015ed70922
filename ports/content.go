package ports

import "github.com/layer-3/learnchain/core"

// ContentResolver turns a content address into a downloadable link.
type ContentResolver interface {
	Resolve(contentID string) (core.ContentLink, error)
}
