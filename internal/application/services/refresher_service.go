package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/crazygit/ewerobot/pkg/wechat"
)

// refreshTimeout bounds one refresh round against a slow platform
const refreshTimeout = 30 * time.Second

// RefresherService proactively refreshes the access_token and jsapi_ticket
// on a cron schedule, so request paths rarely pay the grant round-trip and
// multi-worker deployments sharing a SQL store stay warm.
type RefresherService struct {
	client   *wechat.Client
	schedule cron.Schedule
	stopChan chan struct{}
	mu       sync.Mutex
	running  bool
	stopped  bool // Prevents double-close of stopChan
}

// NewRefresherService creates a refresher from a standard 5-field cron spec
func NewRefresherService(client *wechat.Client, spec string) (*RefresherService, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, err
	}
	return &RefresherService{
		client:   client,
		schedule: schedule,
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins the refresh loop. It blocks until Stop is called, so run it
// in a goroutine. A stopped refresher stays stopped; Start is then a no-op.
func (s *RefresherService) Start() {
	s.mu.Lock()
	if s.running || s.stopped {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	log.Println("⏰ Credential refresher starting...")

	// Warm the credentials immediately on start
	s.refreshOnce()

	for {
		next := s.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
			s.refreshOnce()
		case <-s.stopChan:
			timer.Stop()
			log.Println("⏰ Credential refresher stopped")
			return
		}
	}
}

// Stop gracefully stops the refresher
func (s *RefresherService) Stop() {
	s.mu.Lock()
	if !s.running || s.stopped {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.stopped = true
	s.mu.Unlock()

	close(s.stopChan)
}

func (s *RefresherService) refreshOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if _, err := s.client.RefreshAccessToken(ctx); err != nil {
		log.Printf("⚠️  Failed to refresh access_token: %v", err)
		// No point fetching a ticket with a stale token
		return
	}
	if _, err := s.client.RefreshJSAPITicket(ctx); err != nil {
		log.Printf("⚠️  Failed to refresh jsapi_ticket: %v", err)
	}
}
