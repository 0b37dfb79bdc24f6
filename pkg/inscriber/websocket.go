package inscriber

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
	socketio "github.com/zhouhui8915/go-socket.io-client"
)

type webSocketServer struct {
	URL    string `json:"url"`
	Status string `json:"status"`
}

type webSocketServersResponse struct {
	Servers     []webSocketServer `json:"servers"`
	Recommended string            `json:"recommended"`
}

func (c *Client) resolveWebSocketBaseURL(ctx context.Context) (string, error) {
	if c.webSocketBaseURL != "" {
		return c.webSocketBaseURL, nil
	}

	var response webSocketServersResponse
	if err := c.getJSON(ctx, "/inscriptions/websocket-servers", &response); err != nil {
		return "", err
	}
	if recommended := strings.TrimSpace(response.Recommended); recommended != "" {
		return recommended, nil
	}
	fallback := ""
	for _, server := range response.Servers {
		serverURL := strings.TrimSpace(server.URL)
		if serverURL == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(server.Status), "active") {
			return serverURL, nil
		}
		if fallback == "" {
			fallback = serverURL
		}
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", fmt.Errorf("no websocket servers available")
}

func (c *Client) waitForInscriptionWebSocket(ctx context.Context, transactionID string) (Job, error) {
	wsURL, err := c.resolveWebSocketBaseURL(ctx)
	if err != nil {
		return Job{}, err
	}

	socket, err := socketio.NewClient(wsURL, &socketio.Options{
		Transport: "websocket",
		Query:     map[string]string{"apiKey": c.apiKey},
		Header:    map[string][]string{"x-api-key": {c.apiKey}},
	})
	if err != nil {
		return Job{}, minterr.New(minterr.KindTransientNetwork, "wait for inscription", err)
	}

	wanted := normalizeTransactionID(transactionID)
	events := make(chan map[string]any, 8)
	failures := make(chan string, 2)
	offer := func(payload map[string]any) {
		select {
		case events <- payload:
		default:
		}
	}
	fail := func(message string) {
		select {
		case failures <- message:
		default:
		}
	}

	_ = socket.On("error", func(message any) {
		fail(fmt.Sprintf("%v", message))
	})
	_ = socket.On("inscription-error", func(payload map[string]any) {
		if !matchesInscriptionEvent(wanted, payload) {
			return
		}
		message := parseString(payload["error"])
		if message == "" {
			message = "inscription failed"
		}
		fail("rejected: " + message)
	})
	_ = socket.On("inscription-progress", offer)
	_ = socket.On("inscription-complete", func(payload map[string]any) {
		payload["status"] = "completed"
		offer(payload)
	})

	timer := time.NewTimer(c.webSocketInactivity)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return Job{}, ctx.Err()
		case <-timer.C:
			return Job{}, minterr.Newf(minterr.KindTransientNetwork, "wait for inscription", "websocket idle for %s", c.webSocketInactivity)
		case message := <-failures:
			if strings.HasPrefix(message, "rejected: ") {
				return Job{}, minterr.Newf(minterr.KindUploadRejected, "wait for inscription", "%s", strings.TrimPrefix(message, "rejected: "))
			}
			return Job{}, minterr.Newf(minterr.KindTransientNetwork, "wait for inscription", "%s", message)
		case payload := <-events:
			timer.Reset(c.webSocketInactivity)
			if !matchesInscriptionEvent(wanted, payload) {
				continue
			}
			status := strings.ToLower(parseString(payload["status"]))
			if status != "completed" && parseFloat(payload["progress"]) < 100 {
				continue
			}
			job := parseInscriptionEvent(payload)
			job.Status = "completed"
			job.Completed = true
			return job, nil
		}
	}
}

func matchesInscriptionEvent(wanted string, payload map[string]any) bool {
	if wanted == "" {
		return true
	}
	for _, key := range []string{"jobId", "tx_id", "transactionId"} {
		if value := normalizeTransactionID(parseString(payload[key])); value != "" && value == wanted {
			return true
		}
	}
	return false
}

func parseInscriptionEvent(payload map[string]any) Job {
	return Job{
		ID:            parseString(payload["id"]),
		Status:        parseString(payload["status"]),
		TxID:          parseString(payload["tx_id"]),
		TransactionID: parseString(payload["transactionId"]),
		TopicID:       firstNonEmptyString(payload, "topicId", "topic_id"),
		Error:         parseString(payload["error"]),
	}
}

func parseString(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	default:
		return ""
	}
}

func parseFloat(value any) float64 {
	switch typed := value.(type) {
	case float64:
		return typed
	case int:
		return float64(typed)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func firstNonEmptyString(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(parseString(payload[key])); value != "" {
			return value
		}
	}
	return ""
}
