package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
	"github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/observability"
)

const (
	maxWebhookBytes = 1 << 20
	turnDeadline    = 90 * time.Second
)

const mediaRetryMessage = "I couldn't download that photo. Could you try sending it again?"

// Orchestrator is the handling core the transport hands messages to.
type Orchestrator interface {
	HandleMessage(ctx context.Context, msg contractx.Message) (contractx.Reply, error)
}

type Server struct {
	cfg          Config
	orchestrator Orchestrator
	sender       contractx.Sender
	media        *MediaFetcher
}

func NewServer(cfg Config, orchestrator Orchestrator, sender contractx.Sender, media *MediaFetcher) *Server {
	return &Server{
		cfg:          cfg,
		orchestrator: orchestrator,
		sender:       sender,
		media:        media,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Get("/webhook", s.handleVerify)
	r.Post("/webhook", s.handleWebhook)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// handleVerify answers the Cloud API subscription handshake.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") != "subscribe" || q.Get("hub.verify_token") != s.cfg.VerifyToken {
		http.Error(w, "verification failed", http.StatusForbidden)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(q.Get("hub.challenge")))
}

// handleWebhook acknowledges the delivery immediately and processes the
// contained messages in the background; the Cloud API redelivers on slow
// responses, which would double every turn.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	if !VerifySignature(s.cfg.AppSecret, body, r.Header.Get(signatureHeader)) {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	messages, err := decodeMessages(body)
	if err != nil {
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}

	for _, msg := range messages {
		go s.process(msg)
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) process(msg contractx.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), turnDeadline)
	defer cancel()

	if msg.Kind == contractx.KindImage {
		data, err := s.media.Fetch(ctx, msg.MediaID)
		if err != nil || len(data) == 0 {
			// An empty download is as useless as a failed one; without this
			// the turn would be rejected downstream and the customer would
			// get no reply at all.
			log.Error().Err(err).Str("customer_id", msg.CustomerID).Str("media_id", msg.MediaID).
				Msg("media fetch failed or empty")
			s.deliver(ctx, msg.CustomerID, contractx.Reply{Text: mediaRetryMessage})
			return
		}
		msg.Image = data
	}

	reply, err := s.orchestrator.HandleMessage(ctx, msg)
	if err != nil {
		log.Error().Err(err).Str("customer_id", msg.CustomerID).Msg("handle message failed")
		return
	}
	s.deliver(ctx, msg.CustomerID, reply)
}

func (s *Server) deliver(ctx context.Context, to string, reply contractx.Reply) {
	var err error
	switch {
	case reply.Menu != nil:
		err = s.sender.SendMenu(ctx, to, *reply.Menu)
	case len(reply.Products) > 0:
		err = s.sender.SendProductList(ctx, to, reply.Text, reply.Products)
	case reply.Text != "":
		err = s.sender.SendText(ctx, to, reply.Text)
	}
	if err != nil {
		log.Error().Err(err).Str("customer_id", to).Msg("reply delivery failed")
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
