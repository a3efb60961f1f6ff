package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/secureprint/backend/internal/core"
	"github.com/secureprint/backend/internal/db"
)

type WebhookPayload struct {
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
	Signature string      `json:"signature,omitempty"`
}

type JobEventData struct {
	JobID        string  `json:"job_id"`
	OwnerID      string  `json:"owner_id"`
	DocumentName string  `json:"document_name"`
	Status       string  `json:"status"`
	Cost         float64 `json:"cost"`
	PrinterID    string  `json:"printer_id,omitempty"`
	ReleasedBy   string  `json:"released_by,omitempty"`
}

type WebhookConfig struct {
	RetryCount  int
	RetryDelay  time.Duration
	Timeout     time.Duration
	WorkerCount int
	QueueSize   int
}

type webhookTask struct {
	webhookID int64
	event     string
	payload   *WebhookPayload
	attempt   int
}

// WebhookSender delivers job lifecycle events to subscribed endpoints.
// Deliveries are queued and sent by background workers so the release
// path never blocks on a slow subscriber. Payloads are signed with
// HMAC-SHA256 when the subscription has a secret.
type WebhookSender struct {
	db          *sql.DB
	httpClient  *http.Client
	retryCount  int
	retryDelay  time.Duration
	workerCount int
	queue       chan *webhookTask
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

func NewWebhookSender(database *sql.DB, config WebhookConfig) *WebhookSender {
	if config.RetryCount <= 0 {
		config.RetryCount = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 5 * time.Second
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = 3
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 100
	}

	return &WebhookSender{
		db: database,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		retryCount:  config.RetryCount,
		retryDelay:  config.RetryDelay,
		workerCount: config.WorkerCount,
		queue:       make(chan *webhookTask, config.QueueSize),
		stopCh:      make(chan struct{}),
	}
}

func (s *WebhookSender) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

func (s *WebhookSender) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

// SendJobEvent implements core.EventNotifier. It fans the event out to
// every enabled subscription and returns immediately.
func (s *WebhookSender) SendJobEvent(event string, job *core.Job) {
	data := &JobEventData{
		JobID:        job.ID,
		OwnerID:      job.OwnerID,
		DocumentName: job.DocumentName,
		Status:       string(job.Status),
		Cost:         job.Cost,
		PrinterID:    job.PrinterID,
		ReleasedBy:   job.ReleasedBy,
	}
	s.enqueue(event, data)
}

func (s *WebhookSender) enqueue(event string, data interface{}) {
	webhooks, err := s.getActiveWebhooksForEvent(event)
	if err != nil {
		log.Printf("[webhook] failed to get webhooks for event %s: %v", event, err)
		return
	}

	for _, wh := range webhooks {
		task := &webhookTask{
			webhookID: wh.ID,
			event:     event,
			payload: &WebhookPayload{
				Event:     event,
				Timestamp: time.Now(),
				Data:      data,
			},
		}

		select {
		case s.queue <- task:
		default:
			log.Printf("[webhook] queue full, dropping webhook %d for event %s", wh.ID, event)
		}
	}
}

func (s *WebhookSender) getActiveWebhooksForEvent(event string) ([]*db.Webhook, error) {
	query := `SELECT id, name, url, secret, events_json, enabled, created_at FROM webhooks WHERE enabled = 1 AND events_json LIKE ?`
	eventPattern := fmt.Sprintf("%%\"%s\"%%", event)

	rows, err := s.db.Query(query, eventPattern)
	if err != nil {
		return nil, fmt.Errorf("query webhooks: %w", err)
	}
	defer rows.Close()

	var webhooks []*db.Webhook
	for rows.Next() {
		w := &db.Webhook{}
		var enabled int
		err := rows.Scan(&w.ID, &w.Name, &w.URL, &w.Secret, &w.EventsJSON, &enabled, &w.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan webhook: %w", err)
		}
		w.Enabled = enabled == 1
		webhooks = append(webhooks, w)
	}
	return webhooks, rows.Err()
}

func (s *WebhookSender) getWebhookByID(id int64) (*db.Webhook, error) {
	query := `SELECT id, name, url, secret, events_json, enabled, created_at FROM webhooks WHERE id = ?`
	w := &db.Webhook{}
	var enabled int
	err := s.db.QueryRow(query, id).Scan(&w.ID, &w.Name, &w.URL, &w.Secret, &w.EventsJSON, &enabled, &w.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get webhook %d: %w", id, err)
	}
	w.Enabled = enabled == 1
	return w, nil
}

func (s *WebhookSender) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			return
		case task := <-s.queue:
			if err := s.sendWithRetry(task); err != nil {
				log.Printf("[webhook worker %d] failed to send webhook %d for event %s after %d attempts: %v",
					id, task.webhookID, task.event, task.attempt, err)
			}
		}
	}
}

func (s *WebhookSender) sendWithRetry(task *webhookTask) error {
	wh, err := s.getWebhookByID(task.webhookID)
	if err != nil {
		return fmt.Errorf("get webhook: %w", err)
	}

	var lastErr error
	for task.attempt < s.retryCount {
		task.attempt++

		err := s.sendRequest(wh, task.payload)
		if err == nil {
			return nil
		}

		lastErr = err

		if isClientError(err) {
			log.Printf("[webhook] client error for webhook %d, not retrying: %v", wh.ID, err)
			return err
		}

		if task.attempt < s.retryCount {
			backoff := s.retryDelay * time.Duration(1<<(task.attempt-1))
			log.Printf("[webhook] retry %d/%d for webhook %d in %v: %v",
				task.attempt, s.retryCount, wh.ID, backoff, err)

			select {
			case <-s.stopCh:
				return fmt.Errorf("shutdown requested")
			case <-time.After(backoff):
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (s *WebhookSender) sendRequest(wh *db.Webhook, payload *WebhookPayload) error {
	payloadBytes, err := json.Marshal(payload.Data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}

	if wh.Secret != "" {
		payload.Signature = s.signPayload(payloadBytes, wh.Secret)
	}

	fullPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequest("POST", wh.URL, bytes.NewReader(fullPayload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", payload.Signature)
	req.Header.Set("X-Webhook-Event", payload.Event)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("http error: %d", resp.StatusCode)
	}

	return nil
}

func (s *WebhookSender) signPayload(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func isClientError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	if strings.Contains(errStr, "http error: 4") {
		return true
	}
	return false
}
