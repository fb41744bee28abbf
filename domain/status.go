package domain

type StatusCode int

const (
	StatusAuthOK       StatusCode = 200
	StatusAuthFailed   StatusCode = 201
	StatusAuthRequired StatusCode = 202

	StatusNotFound  StatusCode = 300
	StatusFileReady StatusCode = 301

	StatusDirChanged       StatusCode = 350
	StatusDirNotFound      StatusCode = 351
	StatusPermissionDenied StatusCode = 352

	StatusListOK     StatusCode = 400
	StatusListFailed StatusCode = 401

	StatusMkdirOK      StatusCode = 500
	StatusMkdirExists  StatusCode = 501
	StatusMkdirIllegal StatusCode = 502

	StatusFileDeleted  StatusCode = 600
	StatusDirDeleted   StatusCode = 601
	StatusDeleteFailed StatusCode = 602

	StatusUnsupported StatusCode = 700
)

var statusMessages = map[StatusCode]string{
	StatusAuthOK:           "Passed authentication!",
	StatusAuthFailed:       "Wrong username or password!",
	StatusAuthRequired:     "Authentication required!",
	StatusNotFound:         "File or dir not found!",
	StatusFileReady:        "File already exists, and this msg includes the file size!",
	StatusDirChanged:       "Dir changed successfully!",
	StatusDirNotFound:      "Dir not found!",
	StatusPermissionDenied: "Permission denied!",
	StatusListOK:           "List dir success!",
	StatusListFailed:       "List dir failed!",
	StatusMkdirOK:          "Create dir success!",
	StatusMkdirExists:      "Dir is already exist!",
	StatusMkdirIllegal:     "Dirname is illegal!",
	StatusFileDeleted:      "Delete file success!",
	StatusDirDeleted:       "Delete dir success!",
	StatusDeleteFailed:     "Delete failed!",
	StatusUnsupported:      "Unsupported command!",
}

// Message returns the canonical status text, or "" for codes outside the enumeration.
func (s StatusCode) Message() string {
	return statusMessages[s]
}

func (s StatusCode) Known() bool {
	_, ok := statusMessages[s]
	return ok
}
