package documents

import "time"

// Upload is the file received for one ingestion request. It is never persisted as-is.
type Upload struct {
	Name      string
	MediaType string
	Size      int64
	Data      []byte
}

// Empty reports whether the request carried no file at all.
func (u Upload) Empty() bool {
	return u.Name == "" && len(u.Data) == 0
}

// FileMetadata describes a stored object. It is reconstructed from the object itself
// (attributes + key), never from a side table.
type FileMetadata struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploadedAt"`
	FilePath     string    `json:"filePath"`
	URL          string    `json:"url"`
}
