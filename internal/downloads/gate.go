package downloads

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"resume-portal/internal/shared/metrics"
	"resume-portal/internal/shared/telemetry"
)

const (
	// DefaultLimit is the number of full downloads a session gets per resume.
	DefaultLimit = 3
	// DefaultIdleTTL is how long an untouched session entry is kept.
	DefaultIdleTTL = 24 * time.Hour
	// Unlimited is reported by Remaining when no limit applies.
	Unlimited = -1

	previewTokenPrefix = "preview_"
)

// TokenStatus is the outcome of RequestToken.
type TokenStatus int

const (
	TokenIssued TokenStatus = iota + 1
	TokenDenied
)

func (s TokenStatus) String() string {
	switch s {
	case TokenIssued:
		return "token_issued"
	case TokenDenied:
		return "token_denied"
	default:
		return "unknown"
	}
}

// ConsumeStatus is the outcome of ConsumeToken.
type ConsumeStatus int

const (
	Allowed ConsumeStatus = iota + 1
	InvalidToken
	LimitReached
)

func (s ConsumeStatus) String() string {
	switch s {
	case Allowed:
		return "allowed"
	case InvalidToken:
		return "invalid_token"
	case LimitReached:
		return "limit_reached"
	default:
		return "unknown"
	}
}

// TokenResult is returned by RequestToken.
type TokenResult struct {
	Status    TokenStatus
	Token     string
	Remaining int
	Preview   bool
}

// ConsumeResult is returned by ConsumeToken.
type ConsumeResult struct {
	Status    ConsumeStatus
	Remaining int
	Preview   bool
}

// GateConfig is passed to NewGate once at startup.
type GateConfig struct {
	Limit        int
	LimitEnabled bool
	IdleTTL      time.Duration
	Now          func() time.Time
}

type pair struct {
	session  string
	resumeID string
}

type entry struct {
	token    string
	count    int
	preview  bool
	lastSeen time.Time
}

// Gate bounds full-file downloads per (session, resume) pair. Every download
// needs a single-use token; the uploader's own session is exempt from the
// counter but still needs a token.
type Gate struct {
	cfg    GateConfig
	ledger Ledger

	mu      sync.Mutex
	entries map[pair]*entry
}

// NewGate builds a Gate. A nil ledger disables persistence of completed
// downloads.
func NewGate(cfg GateConfig, ledger Ledger) *Gate {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Gate{cfg: cfg, ledger: ledger, entries: make(map[pair]*entry)}
}

// Limit returns the per-pair download budget.
func (g *Gate) Limit() int { return g.cfg.Limit }

// LimitEnabled reports whether the budget is enforced.
func (g *Gate) LimitEnabled() bool { return g.cfg.LimitEnabled }

// MarkPreview exempts the pair from the download counter.
func (g *Gate) MarkPreview(session, resumeID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entryFor(pair{session, resumeID}).preview = true
}

// IsPreview reports whether session uploaded resumeID.
func (g *Gate) IsPreview(session, resumeID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.entries[pair{session, resumeID}]
	return ok && e.preview
}

// RequestToken issues a fresh token, replacing any unconsumed one, unless the
// pair has used up its budget.
func (g *Gate) RequestToken(session, resumeID string) TokenResult {
	g.mu.Lock()
	e := g.entryFor(pair{session, resumeID})
	var res TokenResult
	switch {
	case e.preview:
		e.token = previewTokenPrefix + uuid.NewString()
		res = TokenResult{Status: TokenIssued, Token: e.token, Remaining: g.remaining(e), Preview: true}
	case g.cfg.LimitEnabled && e.count >= g.cfg.Limit:
		res = TokenResult{Status: TokenDenied, Remaining: 0}
	default:
		e.token = uuid.NewString()
		res = TokenResult{Status: TokenIssued, Token: e.token, Remaining: g.remaining(e)}
	}
	g.mu.Unlock()

	metrics.IncDownload(res.Status.String())
	return res
}

// ConsumeToken redeems token for one download. A token that does not match
// the pair's outstanding token changes nothing. A matching token is always
// cleared, even when the budget turns out to be spent.
func (g *Gate) ConsumeToken(ctx context.Context, session, resumeID, token string) ConsumeResult {
	now := g.cfg.Now()
	k := pair{session, resumeID}

	g.mu.Lock()
	e, ok := g.entries[k]
	var res ConsumeResult
	switch {
	case !ok || token == "" || e.token != token:
		rem := g.cfg.Limit
		if ok {
			rem = g.remaining(e)
		} else if !g.cfg.LimitEnabled {
			rem = Unlimited
		}
		res = ConsumeResult{Status: InvalidToken, Remaining: rem}
	default:
		e.token = ""
		e.lastSeen = now
		switch {
		case e.preview:
			res = ConsumeResult{Status: Allowed, Remaining: g.remaining(e), Preview: true}
		case g.cfg.LimitEnabled && e.count >= g.cfg.Limit:
			res = ConsumeResult{Status: LimitReached, Remaining: 0}
		default:
			e.count++
			res = ConsumeResult{Status: Allowed, Remaining: g.remaining(e)}
		}
	}
	g.mu.Unlock()

	metrics.IncDownload(res.Status.String())
	if res.Status == Allowed && g.ledger != nil {
		ev := Event{SessionID: session, ResumeID: resumeID, Preview: res.Preview, At: now.UTC()}
		if err := g.ledger.Record(ctx, ev); err != nil {
			telemetry.Error("download.ledger_failed", map[string]any{
				"resume_id":  resumeID,
				"session_id": session,
				"error":      err.Error(),
			})
		}
	}
	return res
}

// Remaining reports the downloads left for the pair, or Unlimited.
func (g *Gate) Remaining(session, resumeID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.entries[pair{session, resumeID}]; ok {
		return g.remaining(e)
	}
	if !g.cfg.LimitEnabled {
		return Unlimited
	}
	return g.cfg.Limit
}

// ResetSession forgets every pair of session and returns how many were
// dropped.
func (g *Gate) ResetSession(session string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for k := range g.entries {
		if k.session == session {
			delete(g.entries, k)
			n++
		}
	}
	return n
}

// Prune drops entries idle for longer than IdleTTL and returns how many were
// removed. A non-positive IdleTTL keeps everything.
func (g *Gate) Prune() int {
	if g.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := g.cfg.Now().Add(-g.cfg.IdleTTL)
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for k, e := range g.entries {
		if e.lastSeen.Before(cutoff) {
			delete(g.entries, k)
			n++
		}
	}
	return n
}

// entryFor returns the pair's entry, creating it; callers hold mu.
func (g *Gate) entryFor(k pair) *entry {
	now := g.cfg.Now()
	e, ok := g.entries[k]
	if !ok {
		e = &entry{}
		g.entries[k] = e
	}
	e.lastSeen = now
	return e
}

// callers hold mu
func (g *Gate) remaining(e *entry) int {
	if e.preview || !g.cfg.LimitEnabled {
		return Unlimited
	}
	if left := g.cfg.Limit - e.count; left > 0 {
		return left
	}
	return 0
}
