package envvar

import (
	"fmt"
	"os"
)

const (
	ENVIRONMENT         = "ENVIRONMENT"
	DATABASE_PATH       = "DATABASE_PATH"
	SESSION_SECRET      = "SESSION_SECRET"
	RABBITMQ_URL        = "RABBITMQ_URL"
	RABBITMQ_QUEUE_NAME = "RABBITMQ_QUEUE_NAME"
	DEMUCS_BIN_PATH     = "DEMUCS_BIN_PATH"
	FFMPEG_BIN_PATH     = "FFMPEG_BIN_PATH"
	FFPROBE_BIN_PATH    = "FFPROBE_BIN_PATH"
)

func MustGet(key string) string {
	val, isSet := os.LookupEnv(key)
	if !isSet {
		panic(fmt.Sprintf("No env variable found for key %s", key))
	}

	if val == "" {
		panic(fmt.Sprintf("Env variable is empty for key %s", key))
	}

	return val
}
