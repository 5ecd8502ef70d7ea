// Package loyalty доставляет события начисления и списания баллов во внешнюю систему лояльности.
package loyalty

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/model"
)

// Client инкапсулирует HTTP-взаимодействие с системой лояльности.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// LedgerEntry описывает тело запроса на запись в журнал баллов.
type LedgerEntry struct {
	ID            string `json:"id"`
	GuestID       int64  `json:"guest_id"`
	ReservationID *int64 `json:"reservation_id,omitempty"`
	Points        int64  `json:"points"`
	Kind          string `json:"kind"`
	Reason        string `json:"reason"`
	CreatedAt     string `json:"created_at"`
}

// NewClient создаёт HTTP-клиент для обращения к системе лояльности по указанному адресу.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func entryFromEvent(e model.LoyaltyEvent) LedgerEntry {
	return LedgerEntry{
		ID:            e.ID,
		GuestID:       e.GuestID,
		ReservationID: e.ReservationID,
		Points:        e.Points,
		Kind:          string(e.Kind),
		Reason:        e.Reason,
		CreatedAt:     e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Record отправляет событие в журнал баллов. Идентификатор события передаётся
// в заголовке Idempotency-Key, повторная отправка не дублирует запись.
// При ответе 429 возвращается пауза из Retry-After и nil-ошибка.
func (c *Client) Record(ctx context.Context, e model.LoyaltyEvent) (int, time.Duration, error) {
	if c == nil || c.baseURL == "" {
		return 0, 0, fmt.Errorf("loyalty client not configured")
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	body, err := json.Marshal(entryFromEvent(e))
	if err != nil {
		return 0, 0, fmt.Errorf("encode entry: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/ledger", bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", e.ID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusConflict:
		return resp.StatusCode, 0, nil
	case http.StatusTooManyRequests:
		retryAfter := time.Duration(0)
		if v := resp.Header.Get("Retry-After"); v != "" {
			if seconds, parseErr := strconv.Atoi(v); parseErr == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return resp.StatusCode, retryAfter, nil
	default:
		return resp.StatusCode, 0, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
}
