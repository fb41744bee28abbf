package domain

type Action string

const (
	ActionAuth   Action = "auth"
	ActionGet    Action = "get"
	ActionPut    Action = "put"
	ActionLs     Action = "ls"
	ActionCd     Action = "cd"
	ActionMkdir  Action = "mkdir"
	ActionRm     Action = "rm"
	ActionResend Action = "resend"
)

// Command is one client request. The set of implementations is closed:
// every variant lives in this file and handlers switch over them exhaustively.
type Command interface {
	Action() Action
	command()
}

type AuthCommand struct {
	Username string
	Password string
}

type GetCommand struct {
	Filename string
}

type PutCommand struct {
	FileSize  int64
	LocalFile string
}

type LsCommand struct{}

type CdCommand struct {
	TargetDir string
}

type MkdirCommand struct {
	Dirname string
}

type RmCommand struct {
	Filename string
}

// ResendCommand asks the server to stream AbsFilename (relative to the user's
// home root) starting at ReceivedSize, provided its size still equals FileSize.
type ResendCommand struct {
	FileSize     int64
	ReceivedSize int64
	AbsFilename  string
}

// UnknownCommand carries an action_type nobody recognised.
type UnknownCommand struct {
	Name string
}

func (AuthCommand) Action() Action      { return ActionAuth }
func (GetCommand) Action() Action       { return ActionGet }
func (PutCommand) Action() Action       { return ActionPut }
func (LsCommand) Action() Action        { return ActionLs }
func (CdCommand) Action() Action        { return ActionCd }
func (MkdirCommand) Action() Action     { return ActionMkdir }
func (RmCommand) Action() Action        { return ActionRm }
func (ResendCommand) Action() Action    { return ActionResend }
func (u UnknownCommand) Action() Action { return Action(u.Name) }

func (AuthCommand) command()    {}
func (GetCommand) command()     {}
func (PutCommand) command()     {}
func (LsCommand) command()      {}
func (CdCommand) command()      {}
func (MkdirCommand) command()   {}
func (RmCommand) command()      {}
func (ResendCommand) command()  {}
func (UnknownCommand) command() {}

// IsTransfer reports whether a raw byte stream follows the command or its response.
func IsTransfer(cmd Command) bool {
	switch cmd.(type) {
	case GetCommand, PutCommand, ResendCommand:
		return true
	default:
		return false
	}
}
