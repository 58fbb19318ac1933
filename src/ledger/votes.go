package ledger

import (
	"context"
	"log"
	"sync"
	"time"
)

// AttemptState tracks the lifecycle of a single vote attempt.
type AttemptState int

const (
	StateIdle AttemptState = iota
	StateSubmitting
	StateAwaitingConfirmation
	StateSettled
)

func (s AttemptState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateAwaitingConfirmation:
		return "awaiting confirmation"
	case StateSettled:
		return "settled"
	}
	return "unknown"
}

// VoteResult reports a settled, successful vote. EventSeen is informational:
// the ledger confirmed the transaction either way.
type VoteResult struct {
	Digest    string
	EventSeen bool
}

// TallyEngine executes votes against the ledger. One attempt may be in
// flight per actor; a second submission by the same actor while not idle is
// rejected without contacting the ledger, while other actors proceed
// unaffected. On success, a full resync is awaited before the attempt
// settles, so the caller never reports a vote against a stale tally.
type TallyEngine struct {
	lc     Client
	ids    ObjectIDs
	syncer *Coordinator
	now    func() int64 // wall clock in ms, injectable for tests

	mu     sync.Mutex
	states map[string]AttemptState
}

func NewTallyEngine(lc Client, ids ObjectIDs, syncer *Coordinator) *TallyEngine {
	return &TallyEngine{
		lc:     lc,
		ids:    ids,
		syncer: syncer,
		now:    func() int64 { return time.Now().UnixMilli() },
		states: make(map[string]AttemptState),
	}
}

// State reports the actor's current attempt state.
func (e *TallyEngine) State(actor string) AttemptState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.states[actor]
}

func (e *TallyEngine) setState(actor string, s AttemptState) {
	e.mu.Lock()
	if s == StateIdle {
		delete(e.states, actor)
	} else {
		e.states[actor] = s
	}
	e.mu.Unlock()
}

// Submit casts a vote on the claim for the given actor. The guard is
// re-validated locally before dispatch; the ledger remains the final
// authority and may still reject, in which case the abort is classified.
func (e *TallyEngine) Submit(ctx context.Context, actor string, rec ClaimRecord, d Decision) (*VoteResult, error) {
	e.mu.Lock()
	if e.states[actor] != StateIdle {
		e.mu.Unlock()
		return nil, ErrVoteInFlight
	}
	e.states[actor] = StateSubmitting
	e.mu.Unlock()
	defer e.setState(actor, StateIdle)

	w := rec.ResolveWindow()
	nowMS := e.now()
	if !CanVote(actor, rec, w, nowMS) {
		return nil, &EligibilityError{ClaimID: rec.ClaimID, Reason: eligibilityReason(actor, rec, w, nowMS)}
	}

	digest, err := e.lc.Execute(ctx, e.ids.VoteOnClaim(rec.ClaimID, d))
	if err != nil {
		return nil, err
	}

	e.setState(actor, StateAwaitingConfirmation)
	res, err := e.lc.WaitForTransaction(ctx, digest)
	if err != nil {
		return nil, err
	}
	if res.Status == TxStatusFailure {
		return nil, classifyAbort(res.Error)
	}

	// The vote-recorded event is informational; its absence does not
	// invalidate a confirmed transaction.
	eventSeen := FindEvent(res.Events, EventClaimVoted) != nil

	// Resync before settling so the caller only sees post-vote state.
	if e.syncer != nil {
		if err := e.syncer.RefreshActive(ctx); err != nil {
			log.Printf("vote %s confirmed but resync failed: %v", res.Digest, err)
		}
	}

	e.setState(actor, StateSettled)
	return &VoteResult{Digest: res.Digest, EventSeen: eventSeen}, nil
}

func eligibilityReason(actor string, rec ClaimRecord, w Window, nowMS int64) string {
	switch {
	case actor == "":
		return "no connected identity"
	case actor == rec.OwnerAddress:
		return "cannot vote on your own claim"
	case rec.Status != StatusPending:
		return "claim already " + rec.Status.String()
	case !w.Valid:
		return "voting window could not be resolved"
	default:
		return "voting period has expired"
	}
}
