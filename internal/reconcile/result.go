package reconcile

import "github.com/yuriy-kovalchuk/cloudflare-record/internal/dns"

// Action is the provider call a reconciliation made, or would make in check mode.
type Action string

const (
	ActionNone   Action = "none"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Snapshot echoes the identity fields of a deleted record.
type Snapshot struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Result is reported to the host on success.
type Result struct {
	Changed bool   `json:"changed"`
	Action  Action `json:"-"`

	Name     string `json:"name,omitempty"`
	Type     string `json:"type,omitempty"`
	Content  string `json:"content,omitempty"`
	RecordID string `json:"record_id,omitempty"`

	Delete string    `json:"delete,omitempty"`
	Record *Snapshot `json:"record,omitempty"`
}

func echo(action Action, changed bool, rec dns.Record) Result {
	return Result{
		Changed: changed,
		Action:  action,
		Name:    rec.Name,
		Type:    rec.Type,
		Content: rec.Content,
	}
}
