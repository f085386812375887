package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"mirror/domain"
	"mirror/errors"
)

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) UserRepository {
	return UserRepository{db: db}
}

// DiskUser is the stored shape of a user. The password hash is already
// Argon2id encoded when it reaches the repository.
type DiskUser struct {
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	About        string    `json:"about,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUser persists a new user. Usernames are unique keys, so an
// existing entry fails with ErrUserAlreadyExists inside the same
// transaction that would have written it.
func (u UserRepository) CreateUser(username, email, passwordHash string) (domain.User, error) {
	du := DiskUser{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	bytes, err := json.Marshal(du)
	if err != nil {
		return domain.User{}, err
	}
	err = u.db.Update(func(txn *badger.Txn) error {
		key := []byte(userKey(username))
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		}
		return txn.Set(key, bytes)
	})
	if err != nil {
		return domain.User{}, err
	}
	return toDomainUser(du), nil
}

// GetUser returns ErrNotFound for an unknown username.
func (u UserRepository) GetUser(username string) (domain.User, error) {
	var du DiskUser
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userKey(username)))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &du)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, fmt.Errorf("%w: user %s", errors.ErrNotFound, username)
	}
	if err != nil {
		return domain.User{}, err
	}
	return toDomainUser(du), nil
}

func userKey(username string) string {
	return "user:" + username
}

func toDomainUser(du DiskUser) domain.User {
	return domain.User{
		Username:     du.Username,
		Email:        du.Email,
		PasswordHash: du.PasswordHash,
		About:        du.About,
		CreatedAt:    du.CreatedAt,
	}
}
