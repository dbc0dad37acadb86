package gallery

import "time"

const (
	DefaultTitle       = "Untitled Project"
	DefaultDescription = "No description provided."
)

// ProjectImage is one field log in the gallery document. URL holds the
// compressed image as a data URI, not a network address.
type ProjectImage struct {
	ID          string   `json:"id"`
	URL         string   `json:"url"`
	Category    Category `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	CreatedAt   int64    `json:"createdAt"`
}

// CreatedTime converts the epoch millisecond timestamp
func (p ProjectImage) CreatedTime() time.Time {
	return time.UnixMilli(p.CreatedAt)
}

// NewImage carries the caller supplied fields of a record
type NewImage struct {
	Title       string
	Description string
	Category    Category
}

// FilterByCategory keeps the records of one category, preserving order
func FilterByCategory(images []ProjectImage, category Category) []ProjectImage {
	filtered := make([]ProjectImage, 0, len(images))
	for _, image := range images {
		if image.Category == category {
			filtered = append(filtered, image)
		}
	}
	return filtered
}
