package dns

import "context"

// DefaultTTL asks the provider to pick the TTL automatically.
const DefaultTTL = 1

// Record is a DNS record as stored at the provider.
type Record struct {
	ID          string // opaque provider id
	Zone        string // zone the provider reports the record under
	Name        string // fully qualified, e.g. "www.example.com"
	Type        string // "A", "CNAME", ...
	Content     string
	ContentHash string // provider checksum of the mutable fields
	TTL         int
}

// Provider is the interface DNS providers must implement. Every method
// issues exactly one request to the remote API.
type Provider interface {
	ListRecords(ctx context.Context, zone string) ([]Record, error)
	CreateRecord(ctx context.Context, zone string, record Record) (Record, error)
	EditRecord(ctx context.Context, id, zone string, record Record) (Record, error)
	DeleteRecord(ctx context.Context, id, zone string) error
}
