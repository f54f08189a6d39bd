package cloudflare

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/yuriy-kovalchuk/cloudflare-record/internal/dns"
)

// envelope is the raw shape shared by every API reply.
//
//	{"result": "success"|"error", "msg": string|null, "response": {...}}
type envelope struct {
	Result   string          `json:"result"`
	Msg      *string         `json:"msg"`
	Response json.RawMessage `json:"response"`
}

// reply is a decoded envelope: either success or failure.
type reply interface {
	isReply()
}

type success struct {
	payload json.RawMessage
}

type failure struct {
	message string
}

func (success) isReply() {}
func (failure) isReply() {}

func decodeReply(r io.Reader) (reply, error) {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	switch env.Result {
	case "success":
		return success{payload: env.Response}, nil
	case "":
		return nil, fmt.Errorf("decode response: missing result field")
	default:
		msg := ""
		if env.Msg != nil {
			msg = *env.Msg
		}
		return failure{message: msg}, nil
	}
}

func decodePayload(payload []byte, v interface{}) error {
	if len(bytes.TrimSpace(payload)) == 0 || bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
		return fmt.Errorf("decode response: empty response payload")
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode response payload: %w", err)
	}
	return nil
}

// listResponse is the payload of rec_load_all.
type listResponse struct {
	Recs struct {
		Count   int         `json:"count"`
		HasMore bool        `json:"has_more"`
		Objs    []recordObj `json:"objs"`
	} `json:"recs"`
}

// mutationResponse is the payload of rec_new and rec_edit.
type mutationResponse struct {
	Rec struct {
		Obj *recordObj `json:"obj"`
	} `json:"rec"`
}

// recordObj is a single record as the API serializes it.
type recordObj struct {
	RecID    string  `json:"rec_id"`
	RecHash  string  `json:"rec_hash"`
	ZoneName string  `json:"zone_name"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Content  string  `json:"content"`
	TTL      flexInt `json:"ttl"`
}

func (o recordObj) toRecord() dns.Record {
	return dns.Record{
		ID:          o.RecID,
		Zone:        o.ZoneName,
		Name:        o.Name,
		Type:        o.Type,
		Content:     o.Content,
		ContentHash: o.RecHash,
		TTL:         int(o.TTL),
	}
}

// flexInt accepts both 300 and "300"; the API uses either depending on the action.
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid ttl %s: %w", data, err)
	}
	*n = flexInt(v)
	return nil
}
