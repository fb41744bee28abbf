package services

import (
	"fmt"
	"ftp-lab/auth"
	"ftp-lab/errors"
	"ftp-lab/repositories"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/lo"
)

type IAuthService interface {
	Login(username, password string) (Account, error)
	Register(req auth.RegisterRequest) (Account, error)
	Delete(username string) (string, error)
	List() ([]Account, error)
}

// Account is a user together with its home directory on this server.
type Account struct {
	Username    string
	DisplayName string
	HomeRoot    string
	CreatedAt   time.Time
}

type AuthService struct {
	userRepository repositories.IUserRepository
	homeBaseDir    string
	log            *slog.Logger
	now            func() time.Time
}

func NewAuthService(repo repositories.IUserRepository, homeBaseDir string, log *slog.Logger) *AuthService {
	return &AuthService{
		userRepository: repo,
		homeBaseDir:    homeBaseDir,
		log:            log,
		now:            time.Now,
	}
}

// HomeDir is the sandbox root of username.
func (s *AuthService) HomeDir(username string) string {
	return filepath.Join(s.homeBaseDir, username)
}

// Login checks the credentials and makes sure the home directory exists.
// Unknown users and wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(username, password string) (Account, error) {
	user, err := s.userRepository.GetUser(username)
	if err != nil {
		if !errors.Is(err, errors.ErrUserNotFound) {
			s.log.Error("Account lookup failed", "user", username, "error", err)
		}
		return Account{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return Account{}, errors.ErrInvalidCredentials
	}

	account := s.toAccount(user)
	if err := os.MkdirAll(account.HomeRoot, 0o755); err != nil {
		return Account{}, fmt.Errorf("prepare home of %s: %w", username, err)
	}
	return account, nil
}

// Register validates and stores a new account, then provisions its home.
func (s *AuthService) Register(req auth.RegisterRequest) (Account, error) {
	if err := auth.ValidateRegister(req); err != nil {
		return Account{}, err
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return Account{}, fmt.Errorf("hashing failed: %w", err)
	}

	displayName := lo.Ternary(req.DisplayName == "", req.Username, req.DisplayName)
	user, err := s.userRepository.CreateUser(req.Username, displayName, hashedPassword)
	if err != nil {
		return Account{}, err
	}

	account := s.toAccount(user)
	if err := os.MkdirAll(account.HomeRoot, 0o755); err != nil {
		return Account{}, fmt.Errorf("create home of %s: %w", req.Username, err)
	}
	s.log.Info("User created", "user", req.Username, "home", account.HomeRoot)
	return account, nil
}

// Delete removes the account and archives its home as del_<user>_<unix>.
// It returns the archive path, or "" when there was no home directory.
func (s *AuthService) Delete(username string) (string, error) {
	if err := s.userRepository.DeleteUser(username); err != nil {
		return "", err
	}

	home := s.HomeDir(username)
	if _, err := os.Stat(home); os.IsNotExist(err) {
		s.log.Info("User deleted", "user", username)
		return "", nil
	}

	archived := filepath.Join(s.homeBaseDir, fmt.Sprintf("del_%s_%d", username, s.now().Unix()))
	if err := os.Rename(home, archived); err != nil {
		return "", fmt.Errorf("archive home of %s: %w", username, err)
	}
	s.log.Info("User deleted", "user", username, "archived_home", archived)
	return archived, nil
}

func (s *AuthService) List() ([]Account, error) {
	users, err := s.userRepository.ListUsers()
	if err != nil {
		return nil, err
	}
	return lo.Map(users, func(u repositories.User, _ int) Account {
		return s.toAccount(u)
	}), nil
}

func (s *AuthService) toAccount(u repositories.User) Account {
	return Account{
		Username:    u.Username,
		DisplayName: u.DisplayName,
		HomeRoot:    s.HomeDir(u.Username),
		CreatedAt:   u.CreatedAt,
	}
}
