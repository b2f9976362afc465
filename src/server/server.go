package main

import (
	"time"

	"github.com/stemremover/stem-remover-be/src/server/application"
	"github.com/stemremover/stem-remover-be/src/server/internal/isolation/audio"
	"github.com/stemremover/stem-remover-be/src/server/internal/isolation/model"
	"github.com/stemremover/stem-remover-be/src/server/internal/isolation/model/demucs"
	"github.com/stemremover/stem-remover-be/src/server/internal/lib/executor"
	"github.com/stemremover/stem-remover-be/src/shared/lib/env"
	"github.com/stemremover/stem-remover-be/src/shared/values/dev"
	"github.com/stemremover/stem-remover-be/src/shared/values/envvar"
)

const defaultInferenceTimeout = 10 * time.Minute

func main() {
	var appConfig application.Config

	switch env.Get() {
	case env.Production:
		appConfig = application.Config{
			DatabasePath:      envvar.MustGet(envvar.DATABASE_PATH),
			SessionSecret:     envvar.MustGet(envvar.SESSION_SECRET),
			ScratchDir:        dev.ScratchDir,
			UploadsDir:        dev.UploadsDir,
			OutputsDir:        dev.OutputsDir,
			PublicDir:         dev.PublicDir,
			RabbitMQURL:       envvar.MustGet(envvar.RABBITMQ_URL),
			RabbitMQQueueName: envvar.MustGet(envvar.RABBITMQ_QUEUE_NAME),
			Model:             makeModel(),
			Decoder:           makeDecoder(),
			InferenceTimeout:  defaultInferenceTimeout,
			Port:              ":8000",
			Log:               true,
		}

	case env.Development:
		appConfig = application.Config{
			DatabasePath:      dev.DatabasePath,
			SessionSecret:     envvar.MustGet(envvar.SESSION_SECRET),
			ScratchDir:        dev.ScratchDir,
			UploadsDir:        dev.UploadsDir,
			OutputsDir:        dev.OutputsDir,
			PublicDir:         dev.PublicDir,
			RabbitMQURL:       dev.RabbitMQHost,
			RabbitMQQueueName: dev.RabbitMQQueueName,
			Model:             makeModel(),
			Decoder:           makeDecoder(),
			InferenceTimeout:  defaultInferenceTimeout,
			Port:              ":8000",
			Log:               true,
		}

	default:
		panic("Unexpected environment")
	}

	app := application.NewApp(appConfig)
	if err := app.Start(); err != nil {
		panic(err)
	}
}

// the model is loaded once and shared; separation calls are serialized
// because concurrent inference on one engine is unverified territory
func makeModel() model.Model {
	demucsModel, err := demucs.New(
		envvar.MustGet(envvar.DEMUCS_BIN_PATH),
		dev.ScratchDir,
		executor.BinaryExecutor{},
	)
	if err != nil {
		panic(err)
	}

	return model.Serialize(demucsModel)
}

func makeDecoder() audio.Decoder {
	return audio.NewFFmpegDecoder(
		envvar.MustGet(envvar.FFMPEG_BIN_PATH),
		envvar.MustGet(envvar.FFPROBE_BIN_PATH),
		executor.BinaryExecutor{},
	)
}
