//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"fmt"
	"ftp-lab/errors"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const userPrefix = "user:"

type IUserRepository interface {
	CreateUser(username, displayName, hashedPassword string) (User, error)
	GetUser(username string) (User, error)
	DeleteUser(username string) error
	ListUsers() ([]User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// User is an account record. The home directory is derived from Username
// by the service layer and never stored.
type User struct {
	Username     string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

// CreateUser persists a new account; the password must already be hashed.
func (u UserRepository) CreateUser(username, displayName, hashedPassword string) (User, error) {
	user := User{
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}

	err := u.db.Update(func(txn *badger.Txn) error {
		key := []byte(userPrefix + username)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		}
		return txn.Set(key, encodeUser(user))
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (u UserRepository) GetUser(username string) (User, error) {
	var user User

	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userPrefix + username))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			user, err = decodeUser(val)
			return err
		})
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (u UserRepository) DeleteUser(username string) error {
	return u.db.Update(func(txn *badger.Txn) error {
		key := []byte(userPrefix + username)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrUserNotFound
		}
		return txn.Delete(key)
	})
}

// ListUsers returns every account ordered by username.
func (u UserRepository) ListUsers() ([]User, error) {
	var users []User
	prefix := []byte(userPrefix)

	err := u.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				user, err := decodeUser(val)
				if err != nil {
					return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
				}
				users = append(users, user)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(users, func(i, j int) bool {
		return strings.Compare(users[i].Username, users[j].Username) < 0
	})
	return users, nil
}

func encodeUser(user User) []byte {
	var b []byte
	b = appendString(b, userFieldUsername, user.Username)
	b = appendString(b, userFieldDisplayName, user.DisplayName)
	b = appendString(b, userFieldPasswordHash, user.PasswordHash)
	b = appendInt64(b, userFieldCreatedAt, user.CreatedAt.Unix())
	return b
}

func decodeUser(val []byte) (User, error) {
	r, err := decodeRecord(val)
	if err != nil {
		return User{}, err
	}
	return User{
		Username:     r.strings[userFieldUsername],
		DisplayName:  r.strings[userFieldDisplayName],
		PasswordHash: r.strings[userFieldPasswordHash],
		CreatedAt:    time.Unix(r.ints[userFieldCreatedAt], 0).UTC(),
	}, nil
}
