package model

// FileMeta describes an uploaded file. Only metadata is persisted; the bytes
// live in the configured storage backend.
type FileMeta struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	// Path is the on-disk path for local storage or the public id for cloud storage.
	Path     string `json:"path"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType,omitempty"`
	Backend  string `json:"backend,omitempty"`
}
