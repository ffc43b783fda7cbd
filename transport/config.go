// Package transport is the WhatsApp edge: it receives Cloud API webhooks,
// hands inbound messages to the orchestrator, and delivers replies back
// through the Graph API.
package transport

import "time"

type Config struct {
	ListenAddr    string        `envconfig:"LISTEN_ADDR" default:":8080"`
	GraphBaseURL  string        `envconfig:"GRAPH_BASE_URL" default:"https://graph.facebook.com/v19.0"`
	AccessToken   string        `envconfig:"ACCESS_TOKEN" required:"true"`
	PhoneNumberID string        `envconfig:"PHONE_NUMBER_ID" required:"true"`
	VerifyToken   string        `envconfig:"VERIFY_TOKEN" required:"true"`
	AppSecret     string        `envconfig:"APP_SECRET" required:"true"`
	Timeout       time.Duration `envconfig:"TIMEOUT" default:"10s"`
}
