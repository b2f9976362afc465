package application

import (
	"database/sql"
	"net/http"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stemremover/stem-remover-be/src/server/internal/isolation/audio"
	isolationgateway "github.com/stemremover/stem-remover-be/src/server/internal/isolation/gateway"
	"github.com/stemremover/stem-remover-be/src/server/internal/isolation/model"
	isolationusecase "github.com/stemremover/stem-remover-be/src/server/internal/isolation/usecase"
	"github.com/stemremover/stem-remover-be/src/server/internal/session"
	"github.com/stemremover/stem-remover-be/src/server/internal/subscription"
	usergateway "github.com/stemremover/stem-remover-be/src/server/internal/user/gateway"
	userstorage "github.com/stemremover/stem-remover-be/src/server/internal/user/storage"
	userusecase "github.com/stemremover/stem-remover-be/src/server/internal/user/usecase"
)

// the value the original deployment silently fell back to - rejected here
const knownInsecureSecret = "supersecret"

// uploads over this size are rejected with a 413 before the body is read
const maxRequestBody = "100M"

type App struct {
	echo  *echo.Echo
	sqlDB *sql.DB
	port  string
}

type Config struct {
	DatabasePath      string
	SessionSecret     string
	ScratchDir        string
	UploadsDir        string
	OutputsDir        string
	PublicDir         string
	RabbitMQURL       string
	RabbitMQQueueName string

	// injectable so tests can supply fakes
	Model                 model.Model
	Decoder               audio.Decoder
	SubscriptionPublisher subscription.Publisher

	InferenceTimeout time.Duration
	Port             string
	Log              bool
}

func NewApp(config Config) App {
	validateSessionSecret(config.SessionSecret)

	if err := ensureDirectories(config); err != nil {
		panic(errors.Wrap(err, "Failed to provision working directories"))
	}

	if config.Model == nil {
		panic("No separation model was provided")
	}

	if config.Decoder == nil {
		panic("No audio decoder was provided")
	}

	e := echo.New()

	e.Use(middleware.BodyLimit(maxRequestBody))
	if config.Log {
		e.Use(middleware.Logger())
	}

	sqlDB, err := userstorage.Open(config.DatabasePath)
	if err != nil {
		panic(errors.Wrap(err, "Failed to open the users database"))
	}

	publisher := config.SubscriptionPublisher
	if publisher == nil {
		publisher = makeSubscriptionPublisher(config)
	}

	userGateway := makeUserGateway(config, sqlDB, publisher)
	isolationGateway := makeIsolationGateway(config)

	// health check
	e.GET("/health-check", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// account routes
	e.GET("/signup", userGateway.SignupPage)
	e.POST("/signup", userGateway.Signup)
	e.GET("/login", userGateway.LoginPage)
	e.POST("/login", userGateway.Login)
	e.GET("/logout", userGateway.Logout)

	// homepage + isolation
	e.GET("/", userGateway.Home)
	e.POST("/isolate", isolationGateway.Isolate, userGateway.RequireUser)

	e.Static("/static", config.PublicDir)

	return App{
		echo:  e,
		sqlDB: sqlDB,
		port:  config.Port,
	}
}

func (a *App) Start() error {
	err := a.echo.Start(a.port)
	if err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "Couldn't start echo server")
	}

	return nil
}

func (a *App) Stop() error {
	if err := a.echo.Close(); err != nil {
		return errors.Wrap(err, "Failed to stop echo server")
	}

	if err := a.sqlDB.Close(); err != nil {
		return errors.Wrap(err, "Failed to close the users database")
	}

	return nil
}

func validateSessionSecret(secret string) {
	if secret == "" {
		panic("The session secret is not set")
	}

	if secret == knownInsecureSecret {
		panic("The session secret is set to a known insecure value")
	}
}

func ensureDirectories(config Config) error {
	dirs := []string{config.ScratchDir, config.UploadsDir, config.OutputsDir}
	for _, dir := range dirs {
		if dir == "" {
			return errors.New("A working directory is configured as empty")
		}

		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "Failed to create directory %s", dir)
		}
	}

	return nil
}

func makeSubscriptionPublisher(config Config) subscription.Publisher {
	publisher, err := subscription.NewQueuePublisher(config.RabbitMQURL, config.RabbitMQQueueName)
	if err != nil {
		panic(errors.Wrap(err, "Failed to create rabbitMQ publisher"))
	}

	return publisher
}

func makeUserGateway(config Config, sqlDB *sql.DB, publisher subscription.Publisher) usergateway.Gateway {
	userDB := userstorage.NewDB(sqlDB)
	sessions := session.NewLayer(config.SessionSecret)
	usecase := userusecase.NewUsecase(userDB, sessions, publisher)
	return usergateway.NewGateway(usecase)
}

func makeIsolationGateway(config Config) isolationgateway.Gateway {
	usecase := isolationusecase.NewUsecase(config.Model, config.Decoder, config.InferenceTimeout)
	return isolationgateway.NewGateway(usecase, config.ScratchDir)
}
