package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/yuriy-kovalchuk/cloudflare-record/internal/dns"
)

type call struct {
	Method string
	ID     string
	Zone   string
	Record dns.Record
}

// mockDNSProvider records DNS operations for test assertions.
type mockDNSProvider struct {
	records  []dns.Record
	editHash string // hash returned by EditRecord; defaults to the matched record's hash
	listErr  error
	calls    []call
}

func (m *mockDNSProvider) ListRecords(_ context.Context, zone string) ([]dns.Record, error) {
	m.calls = append(m.calls, call{Method: "list", Zone: zone})
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.records, nil
}

func (m *mockDNSProvider) CreateRecord(_ context.Context, zone string, record dns.Record) (dns.Record, error) {
	m.calls = append(m.calls, call{Method: "create", Zone: zone, Record: record})
	record.ID = "new-id"
	record.Zone = zone
	return record, nil
}

func (m *mockDNSProvider) EditRecord(_ context.Context, id, zone string, record dns.Record) (dns.Record, error) {
	m.calls = append(m.calls, call{Method: "edit", ID: id, Zone: zone, Record: record})
	record.ID = id
	record.ContentHash = m.editHash
	if m.editHash == "" {
		for _, r := range m.records {
			if r.ID == id {
				record.ContentHash = r.ContentHash
			}
		}
	}
	return record, nil
}

func (m *mockDNSProvider) DeleteRecord(_ context.Context, id, zone string) error {
	m.calls = append(m.calls, call{Method: "delete", ID: id, Zone: zone})
	return nil
}

func (m *mockDNSProvider) mutations() []call {
	var out []call
	for _, c := range m.calls {
		if c.Method != "list" {
			out = append(out, c)
		}
	}
	return out
}

func existingWWW() []dns.Record {
	return []dns.Record{{
		ID:          "16606009",
		Zone:        "example.com",
		Name:        "www.example.com",
		Type:        "A",
		Content:     "127.0.0.1",
		ContentHash: "7f8e77bac02ba65d34e20c4b994a202c",
		TTL:         1,
	}}
}

func newReconciler(t *testing.T, m *mockDNSProvider, opts Options) *Reconciler {
	t.Helper()
	r, err := New(m, logr.Discard(), opts)
	assert.NilError(t, err)
	return r
}

func desired(state, name string) Desired {
	return Desired{State: state, Name: name, Zone: "example.com", Type: "A", Content: "127.0.0.1"}
}

func TestPresentNoMatchCreates(t *testing.T) {
	for _, policy := range []Policy{PolicyUpsert, PolicyExact} {
		t.Run(string(policy), func(t *testing.T) {
			m := &mockDNSProvider{records: existingWWW()}
			res, err := newReconciler(t, m, Options{Policy: policy}).Reconcile(context.Background(), desired(StatePresent, "home"))
			assert.NilError(t, err)

			assert.Equal(t, res.Changed, true)
			assert.Equal(t, res.Action, ActionCreate)
			assert.Equal(t, res.Name, "home.example.com")
			assert.Equal(t, res.RecordID, "new-id")

			muts := m.mutations()
			assert.Assert(t, is.Len(muts, 1))
			assert.Equal(t, muts[0].Method, "create")
			assert.Equal(t, muts[0].Zone, "example.com")
			assert.Equal(t, muts[0].Record.Name, "home.example.com")
			assert.Equal(t, muts[0].Record.TTL, dns.DefaultTTL)
		})
	}
}

func TestPresentApexUsesZoneName(t *testing.T) {
	m := &mockDNSProvider{}
	res, err := newReconciler(t, m, Options{}).Reconcile(context.Background(), desired(StatePresent, "example.com"))
	assert.NilError(t, err)
	assert.Equal(t, res.Name, "example.com")
	assert.Equal(t, m.mutations()[0].Record.Name, "example.com")
}

func TestRootedZoneMatchesExistingRecord(t *testing.T) {
	want := desired(StatePresent, "www")
	want.Zone = "example.com."

	m := &mockDNSProvider{records: existingWWW()}
	res, err := newReconciler(t, m, Options{Policy: PolicyUpsert}).Reconcile(context.Background(), want)
	assert.NilError(t, err)
	assert.Equal(t, res.Action, ActionEdit)
	assert.Equal(t, res.Changed, false)
	assert.Equal(t, res.Name, "www.example.com")
	assert.Equal(t, m.calls[0].Zone, "example.com")

	muts := m.mutations()
	assert.Assert(t, is.Len(muts, 1))
	assert.Equal(t, muts[0].Method, "edit")
	assert.Equal(t, muts[0].Zone, "example.com")

	want.State = StateAbsent
	m = &mockDNSProvider{records: existingWWW()}
	res, err = newReconciler(t, m, Options{}).Reconcile(context.Background(), want)
	assert.NilError(t, err)
	assert.Equal(t, res.Action, ActionDelete)
	assert.Equal(t, res.Delete, "16606009")
}

func TestApexMatchIsCaseInsensitive(t *testing.T) {
	m := &mockDNSProvider{}
	res, err := newReconciler(t, m, Options{}).Reconcile(context.Background(), desired(StatePresent, "Example.COM"))
	assert.NilError(t, err)
	assert.Equal(t, res.Name, "Example.COM")
}

func TestUpsertMatchUnchangedHash(t *testing.T) {
	m := &mockDNSProvider{records: existingWWW()}
	res, err := newReconciler(t, m, Options{Policy: PolicyUpsert}).Reconcile(context.Background(), desired(StatePresent, "www"))
	assert.NilError(t, err)

	assert.Equal(t, res.Changed, false)
	assert.Equal(t, res.Action, ActionEdit)
	assert.Equal(t, res.RecordID, "16606009")

	muts := m.mutations()
	assert.Assert(t, is.Len(muts, 1))
	assert.Equal(t, muts[0].Method, "edit")
	assert.Equal(t, muts[0].ID, "16606009")
}

func TestUpsertMatchChangedHash(t *testing.T) {
	m := &mockDNSProvider{records: existingWWW(), editHash: "ffff"}
	want := desired(StatePresent, "www")
	want.Type = "CNAME"
	want.Content = "target.example.net"

	res, err := newReconciler(t, m, Options{Policy: PolicyUpsert}).Reconcile(context.Background(), want)
	assert.NilError(t, err)

	assert.Equal(t, res.Changed, true)
	muts := m.mutations()
	assert.Assert(t, is.Len(muts, 1))
	assert.Equal(t, muts[0].Method, "edit")
	assert.Equal(t, muts[0].Record.Type, "CNAME")
	assert.Equal(t, muts[0].Record.Content, "target.example.net")
}

func TestExactMatchIsNoop(t *testing.T) {
	m := &mockDNSProvider{records: existingWWW()}
	res, err := newReconciler(t, m, Options{Policy: PolicyExact}).Reconcile(context.Background(), desired(StatePresent, "www"))
	assert.NilError(t, err)

	assert.DeepEqual(t, res, Result{
		Changed: false,
		Action:  ActionNone,
		Name:    "www.example.com",
		Type:    "A",
		Content: "127.0.0.1",
	})
	assert.Assert(t, is.Len(m.mutations(), 0))
}

func TestExactDifferentContentCreates(t *testing.T) {
	m := &mockDNSProvider{records: existingWWW()}
	want := desired(StatePresent, "www")
	want.Content = "10.0.0.1"

	res, err := newReconciler(t, m, Options{Policy: PolicyExact}).Reconcile(context.Background(), want)
	assert.NilError(t, err)
	assert.Equal(t, res.Changed, true)
	assert.Equal(t, m.mutations()[0].Method, "create")
}

func TestAbsentMatchDeletes(t *testing.T) {
	m := &mockDNSProvider{records: existingWWW()}
	res, err := newReconciler(t, m, Options{}).Reconcile(context.Background(), desired(StateAbsent, "www"))
	assert.NilError(t, err)

	assert.DeepEqual(t, res, Result{
		Changed: true,
		Action:  ActionDelete,
		Delete:  "16606009",
		Record:  &Snapshot{Name: "www.example.com", Type: "A", Content: "127.0.0.1"},
	})
	assert.DeepEqual(t, m.mutations(), []call{{Method: "delete", ID: "16606009", Zone: "example.com"}})
}

func TestAbsentDeleteUsesRecordZone(t *testing.T) {
	records := existingWWW()
	records[0].Zone = "Example.COM"
	m := &mockDNSProvider{records: records}

	_, err := newReconciler(t, m, Options{}).Reconcile(context.Background(), desired(StateAbsent, "www"))
	assert.NilError(t, err)
	assert.Equal(t, m.mutations()[0].Zone, "Example.COM")
}

func TestAbsentNoMatchIsNoop(t *testing.T) {
	m := &mockDNSProvider{records: existingWWW()}
	res, err := newReconciler(t, m, Options{}).Reconcile(context.Background(), desired(StateAbsent, "foo"))
	assert.NilError(t, err)

	assert.Equal(t, res.Changed, false)
	assert.Equal(t, res.Name, "foo.example.com")
	assert.Assert(t, is.Len(m.mutations(), 0))
}

func TestFirstMatchWins(t *testing.T) {
	records := append(existingWWW(), dns.Record{
		ID: "second", Zone: "example.com", Name: "www.example.com", Type: "A", Content: "127.0.0.1",
	})
	m := &mockDNSProvider{records: records}

	res, err := newReconciler(t, m, Options{}).Reconcile(context.Background(), desired(StateAbsent, "www"))
	assert.NilError(t, err)
	assert.Equal(t, res.Delete, "16606009")
	assert.Assert(t, is.Len(m.mutations(), 1))
}

func TestCheckModeIssuesNoMutations(t *testing.T) {
	tests := []struct {
		name        string
		policy      Policy
		want        Desired
		wantChanged bool
		wantAction  Action
	}{
		{"create", PolicyUpsert, desired(StatePresent, "home"), true, ActionCreate},
		{"edit same content", PolicyUpsert, desired(StatePresent, "www"), false, ActionEdit},
		{"edit new content", PolicyUpsert, Desired{State: StatePresent, Name: "www", Zone: "example.com", Type: "A", Content: "10.0.0.1"}, true, ActionEdit},
		{"exact match", PolicyExact, desired(StatePresent, "www"), false, ActionNone},
		{"delete", PolicyUpsert, desired(StateAbsent, "www"), true, ActionDelete},
		{"delete missing", PolicyUpsert, desired(StateAbsent, "foo"), false, ActionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockDNSProvider{records: existingWWW()}
			res, err := newReconciler(t, m, Options{Policy: tt.policy, CheckMode: true}).Reconcile(context.Background(), tt.want)
			assert.NilError(t, err)
			assert.Equal(t, res.Changed, tt.wantChanged)
			assert.Equal(t, res.Action, tt.wantAction)
			assert.Assert(t, is.Len(m.mutations(), 0))
		})
	}
}

func TestListErrorPropagatesUnmodified(t *testing.T) {
	listErr := &dns.ProviderError{Action: "rec_load_all", Message: "Invalid API key"}
	m := &mockDNSProvider{listErr: listErr}

	_, err := newReconciler(t, m, Options{}).Reconcile(context.Background(), desired(StatePresent, "www"))
	assert.Equal(t, err, error(listErr))
	assert.Error(t, err, "Invalid API key")
	assert.Assert(t, is.Len(m.mutations(), 0))
}

func TestUnknownStateIsValidationError(t *testing.T) {
	m := &mockDNSProvider{records: existingWWW()}
	_, err := newReconciler(t, m, Options{}).Reconcile(context.Background(), desired("latest", "www"))

	var validationErr *dns.ValidationError
	assert.Assert(t, errors.As(err, &validationErr))
	assert.Equal(t, validationErr.Field, "state")
	assert.Assert(t, is.Len(m.calls, 0))
}

func TestNewRejectsUnknownPolicy(t *testing.T) {
	_, err := New(&mockDNSProvider{}, logr.Discard(), Options{Policy: "merge"})
	assert.ErrorContains(t, err, `unknown value "merge"`)
}
