package domain

import "time"

// Response is the single reply frame for a command. Only the fields relevant
// to Status are populated: FileSize for 301, RelativeDir for 350, Entries for 400.
type Response struct {
	Status      StatusCode
	Message     string
	FileSize    *int64
	RelativeDir string
	Entries     []FileEntry
}

func NewResponse(status StatusCode) Response {
	return Response{Status: status, Message: status.Message()}
}

type FileEntry struct {
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}
