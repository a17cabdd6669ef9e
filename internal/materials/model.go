package materials

import "time"

// Material is an archived markdown document produced by an AI operation.
type Material struct {
	ID          string    `json:"id"`
	Operation   string    `json:"operation"`
	StorageKey  string    `json:"-"`
	MimeType    string    `json:"mimeType"`
	SizeBytes   int64     `json:"sizeBytes"`
	ContentHash string    `json:"contentHash"`
	CreatedAt   time.Time `json:"createdAt"`
}
