package repositories

import (
	"testing"

	"github.com/stretchr/testify/require"

	"mirror/errors"
)

func Test_Create_And_Get_User(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewUserRepository(db)
	created, err := repository.CreateUser("alice", "alice@example.com", "$argon2id$encoded")
	req.NoError(err)
	req.False(created.CreatedAt.IsZero())

	fetched, err := repository.GetUser("alice")
	req.NoError(err)
	req.Equal(created, fetched)
}

func Test_Create_Duplicate_User(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewUserRepository(db)
	_, err := repository.CreateUser("alice", "alice@example.com", "$argon2id$encoded")
	req.NoError(err)

	_, err = repository.CreateUser("alice", "other@example.com", "$argon2id$other")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)

	// The original record is untouched
	fetched, err := repository.GetUser("alice")
	req.NoError(err)
	req.Equal("alice@example.com", fetched.Email)
}

func Test_Get_Unknown_User(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewUserRepository(db)
	_, err := repository.GetUser("nobody")
	req.ErrorIs(err, errors.ErrNotFound)
}
