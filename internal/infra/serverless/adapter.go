// Package serverless runs an http.Handler behind API Gateway style function
// events, as delivered by Netlify and AWS Lambda.
package serverless

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
)

// NetlifyPrefix is the path Netlify mounts the offer function under.
const NetlifyPrefix = "/.netlify/functions/offer"

type HandlerFunc func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// Adapt serves each event through h. prefix, when set, is stripped from event
// paths that carry it; rewritten paths such as "/api/entry" pass unchanged.
func Adapt(h http.Handler, prefix string) HandlerFunc {
	adapter := httpadapter.New(h)
	adapter.StripBasePath(prefix)
	return adapter.ProxyWithContext
}
