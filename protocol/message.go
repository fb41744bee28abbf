package protocol

import (
	"fmt"
	"ftp-lab/domain"
	"ftp-lab/errors"
	"io"
	"math"
	"time"

	"github.com/samber/lo"
)

// wireMessage is the JSON shape of both commands and responses.
type wireMessage struct {
	ActionType string `json:"action_type,omitempty"`

	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
	Filename    string `json:"filename,omitempty"`
	LocalFile   string `json:"local_file,omitempty"`
	TargetDir   string `json:"target_dir,omitempty"`
	Dirname     string `json:"dirname,omitempty"`
	AbsFilename string `json:"abs_filename,omitempty"`

	FileSize     *int64 `json:"file_size,omitempty"`
	ReceivedSize *int64 `json:"received_size,omitempty"`
	// Older peers spell it this way.
	LegacyReceivedSize *int64 `json:"recieved_size,omitempty"`

	StatusCode  int          `json:"status_code,omitempty"`
	StatusMsg   string       `json:"status_msg,omitempty"`
	RelativeDir string       `json:"relative_dir,omitempty"`
	Res         *[]wireEntry `json:"res,omitempty"`

	Fill string `json:"fill"`
}

type wireEntry struct {
	Filename string   `json:"filename"`
	IsDir    bool     `json:"is_dir"`
	Size     *int64   `json:"size,omitempty"`
	Time     *float64 `json:"time,omitempty"`
}

// EncodeCommand returns the frame for cmd.
func (c Codec) EncodeCommand(cmd domain.Command) ([]byte, error) {
	m, err := commandToWire(cmd)
	if err != nil {
		return nil, err
	}
	return c.pad(m)
}

// DecodeCommand parses a frame into a command. Unrecognised action types
// become domain.UnknownCommand rather than an error.
func (c Codec) DecodeCommand(frame []byte) (domain.Command, error) {
	m, err := c.unpad(frame)
	if err != nil {
		return nil, err
	}
	return wireToCommand(m), nil
}

func (c Codec) EncodeResponse(resp domain.Response) ([]byte, error) {
	return c.pad(responseToWire(resp))
}

func (c Codec) DecodeResponse(frame []byte) (domain.Response, error) {
	m, err := c.unpad(frame)
	if err != nil {
		return domain.Response{}, err
	}
	if m.StatusCode == 0 {
		return domain.Response{}, fmt.Errorf("%w: frame has no status_code", errors.ErrMalformedFrame)
	}
	return wireToResponse(m), nil
}

func (c Codec) WriteCommand(w io.Writer, cmd domain.Command) error {
	frame, err := c.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	return writeFull(w, frame)
}

func (c Codec) ReadCommand(r io.Reader) (domain.Command, error) {
	frame, err := c.ReadFrame(r)
	if err != nil {
		return nil, err
	}
	return c.DecodeCommand(frame)
}

func (c Codec) WriteResponse(w io.Writer, resp domain.Response) error {
	frame, err := c.EncodeResponse(resp)
	if err != nil {
		return err
	}
	return writeFull(w, frame)
}

func (c Codec) ReadResponse(r io.Reader) (domain.Response, error) {
	frame, err := c.ReadFrame(r)
	if err != nil {
		return domain.Response{}, err
	}
	return c.DecodeResponse(frame)
}

func commandToWire(cmd domain.Command) (wireMessage, error) {
	m := wireMessage{ActionType: string(cmd.Action())}
	switch c := cmd.(type) {
	case domain.AuthCommand:
		m.Username, m.Password = c.Username, c.Password
	case domain.GetCommand:
		m.Filename = c.Filename
	case domain.PutCommand:
		m.FileSize, m.LocalFile = lo.ToPtr(c.FileSize), c.LocalFile
	case domain.LsCommand:
	case domain.CdCommand:
		m.TargetDir = c.TargetDir
	case domain.MkdirCommand:
		m.Dirname = c.Dirname
	case domain.RmCommand:
		m.Filename = c.Filename
	case domain.ResendCommand:
		m.FileSize = lo.ToPtr(c.FileSize)
		m.ReceivedSize = lo.ToPtr(c.ReceivedSize)
		m.AbsFilename = c.AbsFilename
	case domain.UnknownCommand:
	default:
		return wireMessage{}, fmt.Errorf("%w: %T", errors.ErrUnsupportedCommand, cmd)
	}
	return m, nil
}

func wireToCommand(m wireMessage) domain.Command {
	switch domain.Action(m.ActionType) {
	case domain.ActionAuth:
		return domain.AuthCommand{Username: m.Username, Password: m.Password}
	case domain.ActionGet:
		return domain.GetCommand{Filename: m.Filename}
	case domain.ActionPut:
		return domain.PutCommand{FileSize: lo.FromPtr(m.FileSize), LocalFile: m.LocalFile}
	case domain.ActionLs:
		return domain.LsCommand{}
	case domain.ActionCd:
		return domain.CdCommand{TargetDir: m.TargetDir}
	case domain.ActionMkdir:
		return domain.MkdirCommand{Dirname: m.Dirname}
	case domain.ActionRm:
		return domain.RmCommand{Filename: m.Filename}
	case domain.ActionResend:
		received := m.ReceivedSize
		if received == nil {
			received = m.LegacyReceivedSize
		}
		return domain.ResendCommand{
			FileSize:     lo.FromPtr(m.FileSize),
			ReceivedSize: lo.FromPtr(received),
			AbsFilename:  m.AbsFilename,
		}
	default:
		return domain.UnknownCommand{Name: m.ActionType}
	}
}

func responseToWire(resp domain.Response) wireMessage {
	msg := resp.Message
	if msg == "" {
		msg = resp.Status.Message()
	}
	m := wireMessage{
		StatusCode:  int(resp.Status),
		StatusMsg:   msg,
		FileSize:    resp.FileSize,
		RelativeDir: resp.RelativeDir,
	}
	if resp.Entries != nil {
		m.Res = lo.ToPtr(lo.Map(resp.Entries, func(e domain.FileEntry, _ int) wireEntry {
			return toWireEntry(e)
		}))
	}
	return m
}

func wireToResponse(m wireMessage) domain.Response {
	resp := domain.Response{
		Status:      domain.StatusCode(m.StatusCode),
		Message:     m.StatusMsg,
		FileSize:    m.FileSize,
		RelativeDir: m.RelativeDir,
	}
	if m.Res != nil {
		resp.Entries = lo.Map(*m.Res, func(e wireEntry, _ int) domain.FileEntry {
			return fromWireEntry(e)
		})
	}
	return resp
}

func toWireEntry(e domain.FileEntry) wireEntry {
	w := wireEntry{Filename: e.Name, IsDir: e.IsDir}
	if e.IsDir {
		return w
	}
	w.Size = lo.ToPtr(e.Size)
	if !e.ModTime.IsZero() {
		w.Time = lo.ToPtr(float64(e.ModTime.UnixNano()) / 1e9)
	}
	return w
}

func fromWireEntry(w wireEntry) domain.FileEntry {
	e := domain.FileEntry{Name: w.Filename, IsDir: w.IsDir, Size: lo.FromPtr(w.Size)}
	if w.Time != nil {
		sec, frac := math.Modf(*w.Time)
		e.ModTime = time.Unix(int64(sec), int64(math.Round(frac*1e9)))
	}
	return e
}
