package postgresql_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	mock_database "github.com/mitzori/order-tracking/internal/db/mocks"
	"github.com/mitzori/order-tracking/internal/repository/postgresql"
)

func TestUserRepo_ValidateUser(t *testing.T) {
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewUserRepo(mockDB)

		mockDB.EXPECT().
			ExecQueryRow(gomock.Any(), gomock.Any(), gomock.Eq("admin")).
			Return(fakeRow{scan: func(dest ...interface{}) error {
				*(dest[0].(*string)) = string(hash)
				return nil
			}})

		valid, err := repo.ValidateUser(ctx, "admin", "secret")
		require.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("wrong password", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewUserRepo(mockDB)

		mockDB.EXPECT().
			ExecQueryRow(gomock.Any(), gomock.Any(), gomock.Eq("admin")).
			Return(fakeRow{scan: func(dest ...interface{}) error {
				*(dest[0].(*string)) = string(hash)
				return nil
			}})

		valid, err := repo.ValidateUser(ctx, "admin", "wrong")
		require.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("unknown user", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewUserRepo(mockDB)

		mockDB.EXPECT().
			ExecQueryRow(gomock.Any(), gomock.Any(), gomock.Eq("ghost")).
			Return(fakeRow{scan: func(...interface{}) error { return pgx.ErrNoRows }})

		valid, err := repo.ValidateUser(ctx, "ghost", "secret")
		require.NoError(t, err)
		assert.False(t, valid)
	})
}

func TestUserRepo_EnsureAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("already present", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewUserRepo(mockDB)

		mockDB.EXPECT().
			ExecQueryRow(gomock.Any(), gomock.Any(), gomock.Eq("admin")).
			Return(fakeRow{scan: func(dest ...interface{}) error {
				*(dest[0].(*int)) = 1
				return nil
			}})

		assert.NoError(t, repo.EnsureAdmin(ctx, "admin", "secret"))
	})

	t.Run("created on first run", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewUserRepo(mockDB)

		mockDB.EXPECT().
			ExecQueryRow(gomock.Any(), gomock.Any(), gomock.Eq("admin")).
			Return(fakeRow{scan: func(dest ...interface{}) error {
				*(dest[0].(*int)) = 0
				return nil
			}})
		mockDB.EXPECT().
			Exec(gomock.Any(), gomock.Any(), gomock.Eq("admin"), gomock.Any()).
			Return(nil, nil)

		assert.NoError(t, repo.EnsureAdmin(ctx, "admin", "secret"))
	})
}
