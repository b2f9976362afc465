package testing

import (
	"context"
	"database/sql"

	"github.com/onsi/gomega"
	"github.com/stemremover/stem-remover-be/src/server/internal/user/entity"
	"github.com/stemremover/stem-remover-be/src/server/internal/user/password"
	userstorage "github.com/stemremover/stem-remover-be/src/server/internal/user/storage"
)

type Credentials struct {
	Email    string
	Password string
	FullName string
}

var (
	// registered and active
	PrimaryUser = Credentials{
		Email:    "primary@stemremover.com",
		Password: "primary-user-password",
		FullName: "Primary User Name",
	}

	// registered and active, distinct account
	OtherUser = Credentials{
		Email:    "other@stemremover.com",
		Password: "other-user-password",
		FullName: "Other User Name",
	}

	// never registered
	NoAccountUser = Credentials{
		Email:    "adude@someoneelse.com",
		Password: "no-account-password",
		FullName: "Not In DB User",
	}
)

func EnsureUsers(sqlDB *sql.DB) {
	EnsureUser(sqlDB, PrimaryUser)
	EnsureUser(sqlDB, OtherUser)
}

func EnsureUser(sqlDB *sql.DB, creds Credentials) userentity.User {
	hashed, err := password.Hash(creds.Password)
	gomega.ExpectWithOffset(1, err).NotTo(gomega.HaveOccurred())

	user, err := userstorage.NewDB(sqlDB).CreateUser(context.Background(), creds.Email, hashed, creds.FullName)
	gomega.ExpectWithOffset(1, err).NotTo(gomega.HaveOccurred())

	return user
}
