package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
)

// LambdaAdapter serves API Gateway proxy events through an http.Handler.
type LambdaAdapter struct {
	proxy *httpadapter.HandlerAdapter
}

func NewLambdaAdapter(next http.Handler) (*LambdaAdapter, error) {
	if next == nil {
		return nil, errors.New("handler: http handler must not be nil")
	}
	return &LambdaAdapter{proxy: httpadapter.New(next)}, nil
}

func (a *LambdaAdapter) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return a.proxy.ProxyWithContext(ctx, event)
}
