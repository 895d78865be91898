package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/sh3r4rd/file_analysis/internal/apigw"
	"github.com/sh3r4rd/file_analysis/internal/bootstrap"
)

func main() {
	app, err := bootstrap.NewLambda(context.Background())
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	h := apigw.New(app.Authorizer, app.Resolver, app.Logger)

	lambda.Start(func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return h.Upload(bootstrap.InvocationContext(ctx), req)
	})
}
