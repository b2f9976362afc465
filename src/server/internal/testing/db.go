package testing

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/onsi/gomega"
	userstorage "github.com/stemremover/stem-remover-be/src/server/internal/user/storage"
)

// BeforeSuiteDB provisions a throwaway sqlite database for a test suite.
func BeforeSuiteDB() (*sql.DB, string) {
	dir, err := os.MkdirTemp("", "stem-remover-test-")
	gomega.ExpectWithOffset(1, err).NotTo(gomega.HaveOccurred())

	sqlDB, err := userstorage.Open(filepath.Join(dir, "users.db"))
	gomega.ExpectWithOffset(1, err).NotTo(gomega.HaveOccurred())

	return sqlDB, dir
}

func AfterSuiteDB(sqlDB *sql.DB, dir string) {
	err := sqlDB.Close()
	gomega.ExpectWithOffset(1, err).NotTo(gomega.HaveOccurred())

	err = os.RemoveAll(dir)
	gomega.ExpectWithOffset(1, err).NotTo(gomega.HaveOccurred())
}

func ResetDB(sqlDB *sql.DB) {
	_, err := sqlDB.Exec("DELETE FROM users")
	gomega.ExpectWithOffset(1, err).NotTo(gomega.HaveOccurred())
}

func CountUsers(sqlDB *sql.DB) int {
	var count int
	err := sqlDB.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	gomega.ExpectWithOffset(1, err).NotTo(gomega.HaveOccurred())

	return count
}
