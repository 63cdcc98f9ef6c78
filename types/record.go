package types

import "time"

// FileRecord describes a file held by the categorized store.
type FileRecord struct {
	Category     Category  `json:"category"`
	Name         string    `json:"name"`
	Path         string    `json:"-"`
	SizeBytes    int64     `json:"sizeBytes"`
	LastModified time.Time `json:"lastModified"`
}
