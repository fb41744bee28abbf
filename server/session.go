package server

import (
	"fmt"
	"ftp-lab/domain"
	"ftp-lab/errors"
	"ftp-lab/protocol"
	"io"
	"log/slog"
	"net"
	"time"
)

// session is the command loop of one connection.
type session struct {
	state           *domain.Session
	conn            net.Conn
	codec           protocol.Codec
	auth            Authenticator
	log             *slog.Logger
	maxAuthAttempts int
	now             func() time.Time
}

// serve reads one command frame at a time and answers it.
// It returns nil when the client closes the connection between frames.
func (s *session) serve() error {
	for {
		cmd, err := s.codec.ReadCommand(s.conn)
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, errors.ErrMalformedFrame):
			s.log.Warn("Malformed frame", "error", err)
			if err := s.reply(domain.NewResponse(domain.StatusUnsupported)); err != nil {
				return err
			}
			continue
		case err != nil:
			return err
		}

		s.log.Debug("Command received", "action", cmd.Action(), "transfer", domain.IsTransfer(cmd), "state", s.state.State)
		if err := s.dispatch(cmd); err != nil {
			return err
		}
	}
}

// dispatch returns an error only when the session must end.
func (s *session) dispatch(cmd domain.Command) error {
	switch c := cmd.(type) {
	case domain.AuthCommand:
		return s.handleAuth(c)
	case domain.UnknownCommand:
		s.log.Warn("Unsupported command", "action", c.Name)
		return s.reply(domain.NewResponse(domain.StatusUnsupported))
	}

	if s.state.State != domain.StateAuthenticated {
		s.log.Info("Command refused before authentication", "action", cmd.Action())
		if put, ok := cmd.(domain.PutCommand); ok {
			// The announced body still follows the frame.
			if err := s.discard(put.FileSize); err != nil {
				return err
			}
		}
		return s.reply(domain.NewResponse(domain.StatusAuthRequired))
	}

	switch c := cmd.(type) {
	case domain.GetCommand:
		return s.handleGet(c)
	case domain.PutCommand:
		return s.handlePut(c)
	case domain.LsCommand:
		return s.handleLs()
	case domain.CdCommand:
		return s.handleCd(c)
	case domain.MkdirCommand:
		return s.handleMkdir(c)
	case domain.RmCommand:
		return s.handleRm(c)
	case domain.ResendCommand:
		return s.handleResend(c)
	default:
		return s.reply(domain.NewResponse(domain.StatusUnsupported))
	}
}

func (s *session) handleAuth(c domain.AuthCommand) error {
	account, err := s.auth.Login(c.Username, c.Password)
	if err != nil {
		s.state.AuthFailed++
		s.log.Info("Authentication failed", "user", c.Username, "attempt", s.state.AuthFailed)
		if err := s.reply(domain.NewResponse(domain.StatusAuthFailed)); err != nil {
			return err
		}
		if s.maxAuthAttempts > 0 && s.state.AuthFailed >= s.maxAuthAttempts {
			return fmt.Errorf("%w: %d failed logins", errors.ErrTooManyAuthAttempts, s.state.AuthFailed)
		}
		return nil
	}

	s.state.Authenticate(account.Username, account.HomeRoot)
	s.log = s.log.With("user", account.Username)
	s.log.Info("Authenticated", "home", account.HomeRoot)
	return s.reply(domain.NewResponse(domain.StatusAuthOK))
}

func (s *session) reply(resp domain.Response) error {
	return s.codec.WriteResponse(s.conn, resp)
}

// discard consumes an upload body that will not be stored.
func (s *session) discard(size int64) error {
	if size <= 0 {
		return nil
	}
	if _, err := io.CopyN(io.Discard, s.conn, size); err != nil {
		return fmt.Errorf("%w: discarding upload: %v", errors.ErrConnectionLost, err)
	}
	return nil
}
