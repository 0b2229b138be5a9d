//go:build pact
// +build pact

package consumer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"

	pacttest "github.com/Apurer/go-gin-meal-orders/test/pact"
)

type orderPayload struct {
	ID          int64      `json:"id"`
	Code        string     `json:"code"`
	Quantity    int        `json:"quantity"`
	Status      string     `json:"status"`
	ProcessedAt *time.Time `json:"processedAt"`
}

type orderPage struct {
	Data  []orderPayload `json:"data"`
	Total int64          `json:"total"`
}

type problemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

type apiError struct {
	status int
	title  string
	detail string
}

func (e apiError) Error() string {
	msg := e.title
	if msg == "" {
		msg = "api error"
	}
	if e.detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.detail)
	}
	return fmt.Sprintf("%s (status %d)", msg, e.status)
}

func TestKitchenDashboardContract(t *testing.T) {
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	example := pacttest.ExampleOrderPayload()
	orderMatcher := func(status string) matchers.Map {
		return matchers.Map{
			"id":                  matchers.Like(example["id"]),
			"code":                matchers.Term(example["code"].(string), `^PM-\d{8}-\d{3}$`),
			"requesterEmployeeId": matchers.Like(example["requesterEmployeeId"]),
			"departmentId":        matchers.Like(example["departmentId"]),
			"shiftId":             matchers.Like(example["shiftId"]),
			"quantity":            matchers.Like(example["quantity"]),
			"status":              matchers.S(status),
			"orderDate":           matchers.Like(example["orderDate"]),
			"requiresApproval":    matchers.Like(false),
		}
	}
	authHeader := matchers.Regex("Bearer "+pacttest.ExampleToken, `^Bearer \S+$`)
	jsonContentType := matchers.Regex("application/json; charset=utf-8", "application\\/json(?:;\\s?charset=utf-8)?")

	pact.AddInteraction().
		Given(pacttest.StateOrderWaiting).
		UponReceiving("a request for waiting orders").
		WithRequest("GET", "/api/orders", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Authorization", authHeader)
			b.Query("status", matchers.S("WAITING"))
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"data":  matchers.EachLike(orderMatcher("WAITING"), 1),
				"total": matchers.Like(1),
				"page":  matchers.Like(1),
				"limit": matchers.Like(10),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateOrderWaiting).
		UponReceiving("a request to start cooking a waiting order").
		WithRequest("PATCH", fmt.Sprintf("/api/orders/%d/status", pacttest.WaitingOrderID), func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Authorization", authHeader)
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(matchers.Map{"status": matchers.S("IN_PROGRESS")})
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			body := orderMatcher("IN_PROGRESS")
			body["processedAt"] = matchers.Like("2024-06-12T08:15:00Z")
			b.JSONBody(body)
		})

	pact.AddInteraction().
		Given(pacttest.StateOrderMissing).
		UponReceiving("a request for a missing order").
		WithRequest("GET", fmt.Sprintf("/api/orders/%d", pacttest.MissingOrderID), func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Authorization", authHeader)
		}).
		WillRespondWith(http.StatusNotFound, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(matchers.Map{
				"type":   matchers.S("/problems/not-found"),
				"title":  matchers.S("Resource Not Found"),
				"status": matchers.Like(http.StatusNotFound),
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		client := newKitchenClient(config, pacttest.ExampleToken)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		page, err := client.ListByStatus(ctx, "WAITING")
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		if len(page.Data) == 0 || page.Data[0].Status != "WAITING" {
			return fmt.Errorf("expected waiting orders, got %+v", page)
		}

		started, err := client.UpdateStatus(ctx, pacttest.WaitingOrderID, "IN_PROGRESS")
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if started.Status != "IN_PROGRESS" || started.ProcessedAt == nil {
			return fmt.Errorf("expected processed order, got %+v", started)
		}

		_, err = client.Get(ctx, pacttest.MissingOrderID)
		var apiErr apiError
		if !errors.As(err, &apiErr) || apiErr.status != http.StatusNotFound {
			return fmt.Errorf("expected 404 for order %d, got %v", pacttest.MissingOrderID, err)
		}
		return nil
	})
	require.NoError(t, err)
}

type kitchenClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func newKitchenClient(config pactconsumer.MockServerConfig, token string) *kitchenClient {
	host := config.Host
	if host == "" {
		host = "localhost"
	}
	transport := &http.Transport{TLSClientConfig: config.TLSConfig}
	return &kitchenClient{
		baseURL:    fmt.Sprintf("http://%s:%d", host, config.Port),
		token:      token,
		httpClient: &http.Client{Transport: transport, Timeout: 10 * time.Second},
	}
}

func (c *kitchenClient) ListByStatus(ctx context.Context, status string) (*orderPage, error) {
	var page orderPage
	if err := c.do(ctx, http.MethodGet, "/api/orders?status="+status, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *kitchenClient) Get(ctx context.Context, id int64) (*orderPayload, error) {
	var order orderPayload
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/orders/%d", id), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *kitchenClient) UpdateStatus(ctx context.Context, id int64, status string) (*orderPayload, error) {
	var order orderPayload
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/orders/%d/status", id), map[string]string{"status": status}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *kitchenClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(res)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func decodeAPIError(res *http.Response) error {
	var problem problemDetail
	_ = json.NewDecoder(res.Body).Decode(&problem)
	status := problem.Status
	if status == 0 {
		status = res.StatusCode
	}
	return apiError{status: status, title: problem.Title, detail: problem.Detail}
}
