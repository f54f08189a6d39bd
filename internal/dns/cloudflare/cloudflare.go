package cloudflare

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-logr/logr"

	"github.com/yuriy-kovalchuk/cloudflare-record/internal/dns"
	"github.com/yuriy-kovalchuk/cloudflare-record/internal/metrics"
)

// DefaultEndpoint is the Cloudflare client API endpoint. Every action is a
// form-encoded POST to this single URL.
const DefaultEndpoint = "https://www.cloudflare.com/api_json.html"

const (
	actionList   = "rec_load_all"
	actionCreate = "rec_new"
	actionEdit   = "rec_edit"
	actionDelete = "rec_delete"
)

func init() {
	dns.Register("cloudflare", func(log logr.Logger, settings map[string]string) (dns.Provider, error) {
		return New(log, settings)
	})
}

// Client implements dns.Provider for the Cloudflare client API.
type Client struct {
	endpoint string
	email    string
	token    string
	client   *http.Client
	log      logr.Logger
}

// New creates a Cloudflare client from the given settings map.
// Required settings: email, token.
// Optional settings: endpoint (default DefaultEndpoint).
func New(log logr.Logger, settings map[string]string) (*Client, error) {
	email := settings["email"]
	if email == "" {
		return nil, fmt.Errorf("cloudflare: missing required setting 'email'")
	}
	token := settings["token"]
	if token == "" {
		return nil, fmt.Errorf("cloudflare: missing required setting 'token'")
	}

	endpoint := DefaultEndpoint
	if v := settings["endpoint"]; v != "" {
		u, err := url.Parse(v)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("cloudflare: invalid endpoint %q", v)
		}
		endpoint = v
	}

	return &Client{
		endpoint: endpoint,
		email:    email,
		token:    token,
		client:   &http.Client{},
		log:      log,
	}, nil
}

// do sends one action to the API and returns the payload of a successful
// envelope. The credential pair is appended to params on every call.
func (c *Client) do(ctx context.Context, action string, params url.Values) (payload []byte, err error) {
	defer func() { metrics.ObserveProviderRequest(action, outcome(err)) }()

	form := url.Values{}
	for k, v := range params {
		form[k] = v
	}
	form.Set("a", action)
	form.Set("email", c.email)
	form.Set("tkn", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &dns.TransportError{Action: action, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.log.V(1).Info("sending request", "action", action, "zone", params.Get("z"))
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &dns.TransportError{Action: action, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &dns.TransportError{
			Action: action,
			Err:    fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	r, err := decodeReply(resp.Body)
	if err != nil {
		return nil, &dns.TransportError{Action: action, Err: err}
	}
	switch r := r.(type) {
	case success:
		return r.payload, nil
	case failure:
		return nil, &dns.ProviderError{Action: action, Message: r.message}
	}
	return nil, &dns.TransportError{Action: action, Err: fmt.Errorf("unhandled reply %T", r)}
}

// ListRecords returns every record in zone in the order the provider lists them.
func (c *Client) ListRecords(ctx context.Context, zone string) ([]dns.Record, error) {
	payload, err := c.do(ctx, actionList, url.Values{"z": {zone}})
	if err != nil {
		return nil, err
	}

	var lr listResponse
	if err := decodePayload(payload, &lr); err != nil {
		return nil, &dns.TransportError{Action: actionList, Err: err}
	}
	if lr.Recs.HasMore {
		c.log.Info("provider reported more records than returned in one page", "zone", zone, "count", lr.Recs.Count)
	}

	records := make([]dns.Record, 0, len(lr.Recs.Objs))
	for _, obj := range lr.Recs.Objs {
		records = append(records, obj.toRecord())
	}
	c.log.V(1).Info("listed records", "zone", zone, "count", len(records))
	return records, nil
}

// CreateRecord adds a new record to zone and returns it as echoed by the provider.
func (c *Client) CreateRecord(ctx context.Context, zone string, record dns.Record) (dns.Record, error) {
	c.log.Info("creating record", "zone", zone, "name", record.Name, "type", record.Type, "content", record.Content)

	params := recordParams(zone, record)
	payload, err := c.do(ctx, actionCreate, params)
	if err != nil {
		return dns.Record{}, err
	}
	created, err := decodeMutation(actionCreate, payload)
	if err != nil {
		return dns.Record{}, err
	}

	c.log.Info("record created", "id", created.ID)
	return created, nil
}

// EditRecord replaces the fields of the record with the given id and returns
// the updated record.
func (c *Client) EditRecord(ctx context.Context, id, zone string, record dns.Record) (dns.Record, error) {
	c.log.Info("editing record", "id", id, "zone", zone, "name", record.Name, "type", record.Type, "content", record.Content)

	params := recordParams(zone, record)
	params.Set("id", id)
	payload, err := c.do(ctx, actionEdit, params)
	if err != nil {
		return dns.Record{}, err
	}
	edited, err := decodeMutation(actionEdit, payload)
	if err != nil {
		return dns.Record{}, err
	}

	c.log.Info("record edited", "id", id, "hash", edited.ContentHash)
	return edited, nil
}

// DeleteRecord removes the record with the given id from zone.
func (c *Client) DeleteRecord(ctx context.Context, id, zone string) error {
	c.log.Info("deleting record", "id", id, "zone", zone)

	if _, err := c.do(ctx, actionDelete, url.Values{"id": {id}, "z": {zone}}); err != nil {
		return err
	}

	c.log.Info("record deleted", "id", id)
	return nil
}

func recordParams(zone string, record dns.Record) url.Values {
	ttl := record.TTL
	if ttl == 0 {
		ttl = dns.DefaultTTL
	}
	return url.Values{
		"z":       {zone},
		"type":    {record.Type},
		"name":    {record.Name},
		"content": {record.Content},
		"ttl":     {strconv.Itoa(ttl)},
	}
}

func decodeMutation(action string, payload []byte) (dns.Record, error) {
	var mr mutationResponse
	if err := decodePayload(payload, &mr); err != nil {
		return dns.Record{}, &dns.TransportError{Action: action, Err: err}
	}
	if mr.Rec.Obj == nil {
		return dns.Record{}, &dns.TransportError{Action: action, Err: errors.New("response is missing rec.obj")}
	}
	return mr.Rec.Obj.toRecord(), nil
}

func outcome(err error) string {
	var providerErr *dns.ProviderError
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.As(err, &providerErr):
		return metrics.OutcomeProviderError
	default:
		return metrics.OutcomeTransportError
	}
}
