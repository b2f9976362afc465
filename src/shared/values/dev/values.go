package dev

const (
	DatabasePath      = "users.db"
	RabbitMQHost      = "amqp://localhost:5672"
	RabbitMQQueueName = "stem-remover-subscriptions"

	ScratchDir = "temp_uploads"
	UploadsDir = "uploads"
	OutputsDir = "outputs"
	PublicDir  = "public"
)
