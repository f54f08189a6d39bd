package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/yuriy-kovalchuk/cloudflare-record/internal/dns"
)

const (
	StatePresent = "present"
	StateAbsent  = "absent"
)

// Policy decides which existing record counts as the match and what happens
// when a present record is matched.
type Policy string

const (
	// PolicyUpsert matches on name only and always edits a matched record,
	// reporting a change when the provider's content hash moves.
	PolicyUpsert Policy = "upsert"
	// PolicyExact matches on name, type and content and never touches a
	// matched record. A name match with other type or content gets a new
	// record next to it.
	PolicyExact Policy = "exact"
)

// Desired is the record state one reconciliation converges to.
type Desired struct {
	State   string
	Name    string // relative to Zone, or equal to Zone for the apex
	Zone    string
	Type    string
	Content string
}

// Options configure a Reconciler.
type Options struct {
	Policy Policy
	// CheckMode reports the outcome without issuing create, edit or delete.
	CheckMode bool
}

// Reconciler converges a single DNS record to its desired state.
type Reconciler struct {
	dns       dns.Provider
	log       logr.Logger
	policy    Policy
	checkMode bool
}

func New(provider dns.Provider, log logr.Logger, opts Options) (*Reconciler, error) {
	policy := opts.Policy
	if policy == "" {
		policy = PolicyUpsert
	}
	if policy != PolicyUpsert && policy != PolicyExact {
		return nil, &dns.ValidationError{Field: "policy", Reason: fmt.Sprintf("unknown value %q", policy)}
	}
	return &Reconciler{
		dns:       provider,
		log:       log,
		policy:    policy,
		checkMode: opts.CheckMode,
	}, nil
}

// Reconcile lists the zone, picks the first matching record and issues at
// most one mutating call. Provider errors are returned unmodified.
func (r *Reconciler) Reconcile(ctx context.Context, want Desired) (Result, error) {
	if want.State != StatePresent && want.State != StateAbsent {
		return Result{}, &dns.ValidationError{
			Field:  "state",
			Reason: fmt.Sprintf("unknown value %q, expected one of: present, absent", want.State),
		}
	}

	zone := dns.TrimRoot(want.Zone)
	existing, err := r.dns.ListRecords(ctx, zone)
	if err != nil {
		return Result{}, err
	}

	desired := dns.Record{
		Name:    dns.Qualify(want.Name, zone),
		Type:    want.Type,
		Content: want.Content,
		TTL:     dns.DefaultTTL,
	}
	match, found := r.match(existing, desired)
	r.log.V(1).Info("matched existing records", "name", desired.Name, "candidates", len(existing), "found", found, "policy", r.policy)

	if want.State == StateAbsent {
		if !found {
			return echo(ActionNone, false, desired), nil
		}
		return r.absent(ctx, zone, match)
	}

	if !found {
		return r.create(ctx, zone, desired)
	}
	if r.policy == PolicyExact {
		r.log.V(1).Info("record already up to date", "name", desired.Name, "id", match.ID)
		return echo(ActionNone, false, desired), nil
	}
	return r.edit(ctx, zone, match, desired)
}

// match returns the first record, in provider order, that the policy
// accepts. Later matches are ignored.
func (r *Reconciler) match(existing []dns.Record, desired dns.Record) (dns.Record, bool) {
	for _, rec := range existing {
		if !strings.EqualFold(rec.Name, desired.Name) {
			continue
		}
		if r.policy == PolicyExact && (!strings.EqualFold(rec.Type, desired.Type) || rec.Content != desired.Content) {
			continue
		}
		return rec, true
	}
	return dns.Record{}, false
}

func (r *Reconciler) create(ctx context.Context, zone string, desired dns.Record) (Result, error) {
	res := echo(ActionCreate, true, desired)
	if r.checkMode {
		r.log.Info("check mode: would create record", "name", desired.Name, "type", desired.Type)
		return res, nil
	}

	created, err := r.dns.CreateRecord(ctx, zone, desired)
	if err != nil {
		return Result{}, err
	}
	res.RecordID = created.ID
	r.log.Info("created DNS record", "name", desired.Name, "id", created.ID)
	return res, nil
}

func (r *Reconciler) edit(ctx context.Context, zone string, match, desired dns.Record) (Result, error) {
	res := echo(ActionEdit, false, desired)
	res.RecordID = match.ID

	if r.checkMode {
		res.Changed = !strings.EqualFold(match.Type, desired.Type) || match.Content != desired.Content
		r.log.Info("check mode: would edit record", "name", desired.Name, "id", match.ID, "changed", res.Changed)
		return res, nil
	}

	edited, err := r.dns.EditRecord(ctx, match.ID, zone, desired)
	if err != nil {
		return Result{}, err
	}
	res.Changed = match.ContentHash != edited.ContentHash
	r.log.Info("edited DNS record", "name", desired.Name, "id", match.ID, "changed", res.Changed)
	return res, nil
}

func (r *Reconciler) absent(ctx context.Context, zone string, match dns.Record) (Result, error) {
	res := Result{
		Changed: true,
		Action:  ActionDelete,
		Delete:  match.ID,
		Record:  &Snapshot{Name: match.Name, Type: match.Type, Content: match.Content},
	}
	if r.checkMode {
		r.log.Info("check mode: would delete record", "name", match.Name, "id", match.ID)
		return res, nil
	}

	// The record's own zone wins over the requested one.
	if match.Zone != "" {
		zone = match.Zone
	}
	if err := r.dns.DeleteRecord(ctx, match.ID, zone); err != nil {
		return Result{}, err
	}
	r.log.Info("deleted DNS record", "name", match.Name, "id", match.ID)
	return res, nil
}
