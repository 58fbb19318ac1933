package ledger

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/OneOfOne/xxhash"
)

// Source names the acquisition path that produced a snapshot.
type Source int

const (
	SourceNone Source = iota
	SourcePassive
	SourceActive
)

func (s Source) String() string {
	switch s {
	case SourcePassive:
		return "passive"
	case SourceActive:
		return "active"
	}
	return "none"
}

// Snapshot is one immutable generation of the canonical claim list. It is
// replaced wholesale on every successful decode from either path, never
// patched field by field, so a reader can never observe a half-updated list.
type Snapshot struct {
	Records    []ClaimRecord
	Version    uint64
	LastSource Source
	Err        error
	Diags      []Diagnostic
}

// Coordinator reconciles the passive object-query path and the active
// read-invocation path into one canonical, de-duplicated claim list.
// Whichever path completes last wins; completion order is serialized by the
// mutex, so the later finisher deterministically overwrites.
type Coordinator struct {
	lc  Client
	ids ObjectIDs

	mu       sync.Mutex
	snap     Snapshot
	onUpdate func(Snapshot)
}

func NewCoordinator(lc Client, ids ObjectIDs) *Coordinator {
	return &Coordinator{lc: lc, ids: ids}
}

// SetOnUpdate registers a hook invoked with a copy of each new snapshot.
// Must be called before the coordinator is shared.
func (c *Coordinator) SetOnUpdate(fn func(Snapshot)) { c.onUpdate = fn }

// Snapshot returns a copy of the current state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copySnapshotLocked()
}

func (c *Coordinator) copySnapshotLocked() Snapshot {
	out := c.snap
	out.Records = append([]ClaimRecord(nil), c.snap.Records...)
	out.Diags = append([]Diagnostic(nil), c.snap.Diags...)
	return out
}

// Lookup finds a claim by id in the current snapshot.
func (c *Coordinator) Lookup(claimID string) (ClaimRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range c.snap.Records {
		if rec.ClaimID == claimID {
			return rec, true
		}
	}
	return ClaimRecord{}, false
}

// ApplyPassive feeds a freshly observed claim-handler document from the
// standing subscription (or the initial mount read) into the snapshot.
func (c *Coordinator) ApplyPassive(doc Document) Snapshot {
	records, diags := DecodeClaims(doc)
	return c.replace(records, diags, SourcePassive)
}

// RefreshActive dispatches the get_all_claims invocation, waits for its
// confirmation, extracts the claims event payload and replaces the snapshot.
// This is the authoritative fetch; callers await it to completion.
func (c *Coordinator) RefreshActive(ctx context.Context) error {
	digest, err := c.lc.Execute(ctx, c.ids.GetAllClaims())
	if err != nil {
		return err
	}
	res, err := c.lc.WaitForTransaction(ctx, digest)
	if err != nil {
		return err
	}
	if res.Status == TxStatusFailure {
		return classifyAbort(res.Error)
	}

	ev := FindEvent(res.Events, EventGetAllClaims, EventAllClaims)
	if ev == nil {
		return ErrNoClaimsEvent
	}
	seq, _ := ev.Parsed["claims"].([]any)
	records, diags := DecodeClaimSequence(seq)
	c.replace(records, diags, SourceActive)
	return nil
}

// replace installs a new generation atomically. An empty decode over a prior
// non-empty snapshot is ambiguous (no data, or a query race); the old records
// are kept and the ambiguity recorded instead of clearing state.
func (c *Coordinator) replace(records []ClaimRecord, diags []Diagnostic, src Source) Snapshot {
	records = dedupe(records)

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(records) == 0 && len(c.snap.Records) > 0 {
		c.snap.Err = ErrAmbiguousEmpty
		c.snap.Diags = diags
		c.snap.LastSource = src
		return c.copySnapshotLocked()
	}

	c.snap = Snapshot{
		Records:    records,
		Version:    hashRecords(records),
		LastSource: src,
		Diags:      diags,
	}
	out := c.copySnapshotLocked()
	if c.onUpdate != nil {
		c.onUpdate(out)
	}
	return out
}

// dedupe keeps the first occurrence per claim id, preserving decode order.
func dedupe(records []ClaimRecord) []ClaimRecord {
	seen := make(map[string]struct{}, len(records))
	out := records[:0]
	for _, rec := range records {
		if _, dup := seen[rec.ClaimID]; dup && rec.ClaimID != "" {
			continue
		}
		seen[rec.ClaimID] = struct{}{}
		out = append(out, rec)
	}
	return out
}

// hashRecords fingerprints a generation so consumers can tell apart decode
// passes without comparing whole lists.
func hashRecords(records []ClaimRecord) uint64 {
	h := xxhash.NewS64(0)
	var buf [8]byte
	for _, rec := range records {
		h.WriteString(rec.ClaimID)
		binary.LittleEndian.PutUint64(buf[:], uint64(rec.YesVotes))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(rec.NoVotes))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(rec.Status))
		h.Write(buf[:])
	}
	return h.Sum64()
}
