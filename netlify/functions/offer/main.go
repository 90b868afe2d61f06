package main

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/bookedbeauty/welcome-offer-gate/internal/app"
	"github.com/bookedbeauty/welcome-offer-gate/internal/config"
	"github.com/bookedbeauty/welcome-offer-gate/internal/infra/serverless"
	"github.com/bookedbeauty/welcome-offer-gate/pkg/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load configuration: %v", err)
	}

	application := app.New(cfg, logger.New(cfg.Logging))
	defer application.Close()

	lambda.Start(serverless.Adapt(application.Router(), serverless.NetlifyPrefix))
}
