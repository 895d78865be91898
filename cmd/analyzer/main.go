package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/sh3r4rd/file_analysis/internal/bootstrap"
)

func main() {
	app, err := bootstrap.NewLambda(context.Background())
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	// A returned error makes S3 redeliver the batch.
	lambda.Start(func(ctx context.Context, event events.S3Event) error {
		return app.Worker.HandleS3Event(bootstrap.InvocationContext(ctx), event)
	})
}
