package testing

import (
	"os"

	"github.com/stemremover/stem-remover-be/src/shared/values/envvar"
)

const SessionSecret = "test-session-secret"

func SetTestEnv() {
	err := os.Setenv(envvar.ENVIRONMENT, "test")
	if err != nil {
		panic(err)
	}
}
