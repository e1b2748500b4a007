//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"pairchat/domain/chat"
	"pairchat/errors"
)

type IUserRepository interface {
	Create(username, passwordHash string) (User, error)
	GetByID(id chat.UserID) (User, error)
	GetByUsername(username string) (User, error)
	List(exclude chat.UserID) ([]User, error)
}

// User is the repository-level representation of an account.
type User struct {
	ID           chat.UserID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

func (u User) Identity() chat.Identity {
	return chat.Identity{ID: u.ID, Username: u.Username}
}

type UserRepository struct {
	db  *badger.DB
	seq *badger.Sequence
}

// NewUserRepository opens the id sequence backing numeric user ids.
// Callers must Close the repository so unused sequence range is released.
func NewUserRepository(db *badger.DB) (*UserRepository, error) {
	seq, err := db.GetSequence([]byte("seq:user"), 64)
	if err != nil {
		return nil, err
	}
	return &UserRepository{db: db, seq: seq}, nil
}

func (u *UserRepository) Close() error {
	return u.seq.Release()
}

type storedUser struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	CreatedAt    int64  `json:"created_at"`
}

// Create persists a new account under two keys: "user:id:{id_padded}" for
// lookups and listing, and "user:name:{username}" as a uniqueness index
// pointing back at the id. Both are written in one transaction so a
// username can never map to a half-written user.
func (u *UserRepository) Create(username, passwordHash string) (User, error) {
	next, err := u.seq.Next()
	if err != nil {
		return User{}, err
	}
	// Sequence values start at zero; ids start at one so the zero value
	// of an Identity never collides with a real account.
	id := chat.UserID(next + 1)

	user := User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	data, err := json.Marshal(storedUser{
		ID:           int64(user.ID),
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt.Unix(),
	})
	if err != nil {
		return User{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		nameKey := usernameKey(username)
		if _, err := txn.Get(nameKey); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(nameKey, userIDKey(id)); err != nil {
			return err
		}
		return txn.Set(userIDKey(id), data)
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (u *UserRepository) GetByID(id chat.UserID) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		found, err := readUser(txn, userIDKey(id))
		if err != nil {
			return err
		}
		user = found
		return nil
	})
	return user, err
}

func (u *UserRepository) GetByUsername(username string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(usernameKey(username))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return errors.ErrUserNotFound
			}
			return err
		}
		var idKey []byte
		if err := item.Value(func(value []byte) error {
			idKey = append([]byte(nil), value...)
			return nil
		}); err != nil {
			return err
		}
		found, err := readUser(txn, idKey)
		if err != nil {
			return err
		}
		user = found
		return nil
	})
	return user, err
}

// List returns every account except the one identified by exclude,
// ordered by id ascending.
func (u *UserRepository) List(exclude chat.UserID) ([]User, error) {
	var users []User
	err := u.db.View(func(txn *badger.Txn) error {
		prefix := []byte("user:id:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var stored storedUser
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &stored)
			})
			if err != nil {
				return err
			}
			if chat.UserID(stored.ID) == exclude {
				continue
			}
			users = append(users, toUser(stored))
		}
		return nil
	})
	return users, err
}

func readUser(txn *badger.Txn, key []byte) (User, error) {
	item, err := txn.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return User{}, errors.ErrUserNotFound
		}
		return User{}, err
	}
	var stored storedUser
	if err := item.Value(func(value []byte) error {
		return json.Unmarshal(value, &stored)
	}); err != nil {
		return User{}, err
	}
	return toUser(stored), nil
}

func toUser(stored storedUser) User {
	return User{
		ID:           chat.UserID(stored.ID),
		Username:     stored.Username,
		PasswordHash: stored.PasswordHash,
		CreatedAt:    time.Unix(stored.CreatedAt, 0).UTC(),
	}
}

func userIDKey(id chat.UserID) []byte {
	return []byte(fmt.Sprintf("user:id:%019d", id))
}

func usernameKey(username string) []byte {
	return []byte("user:name:" + username)
}
