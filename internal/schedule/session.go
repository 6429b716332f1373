package schedule

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/derekprior/courtsim/internal/config"
	"github.com/derekprior/courtsim/internal/roster"
	"github.com/derekprior/courtsim/internal/strategy"
)

// ErrInvariant is wrapped by every scheduling invariant violation.
var ErrInvariant = errors.New("scheduling invariant violated")

type Options struct {
	Logger zerolog.Logger
	// CheckInvariants makes every Tick verify the session and fail on
	// the first violation.
	CheckInvariants bool
}

// Session is one simulation run: the roster, the courts, the pending
// queue and the clock. It is not safe for concurrent use; Tick must only
// be called from one goroutine at a time.
type Session struct {
	opts   Options
	log    zerolog.Logger
	scorer strategy.Scorer

	facility      config.Facility
	registry      *roster.Registry
	courts        *allocator
	now           int
	duration      float64
	pendingTarget int
	lastType      MatchType
	nextID        MatchID
	matches       []*Match // every composed match, by creation
}

// New builds a session for the facility and resets it to minute zero.
func New(f config.Facility, scorer strategy.Scorer, opts Options) (*Session, error) {
	if scorer == nil {
		return nil, fmt.Errorf("%w: no scoring strategy", config.ErrInvalid)
	}
	s := &Session{opts: opts, log: opts.Logger, scorer: scorer}
	if err := s.Reset(f); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset discards all players and matches and starts over at minute zero.
func (s *Session) Reset(f config.Facility) error {
	if err := f.Validate(); err != nil {
		return err
	}
	reg, err := buildRegistry(f)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}

	s.facility = f
	s.registry = reg
	s.courts = newAllocator(f.Courts)
	s.now = 0
	s.duration = f.MatchDuration.Minutes()
	s.pendingTarget = f.PendingTarget
	if s.pendingTarget == 0 {
		s.pendingTarget = config.DefaultPendingTarget
	}
	s.lastType = ""
	s.nextID = 1
	s.matches = nil

	men, women := f.Headcount()
	s.log.Info().
		Int("courts", f.Courts).
		Int("men", men).
		Int("women", women).
		Float64("duration", s.duration).
		Msg("session reset")
	return nil
}

func buildRegistry(f config.Facility) (*roster.Registry, error) {
	if len(f.Roster) == 0 {
		men, women := f.Headcount()
		return roster.Generate(men, women), nil
	}
	r := roster.New()
	for _, e := range f.Roster {
		g, err := roster.ParseGender(e.Gender)
		if err != nil {
			return nil, err
		}
		if err := r.Add(roster.PlayerID(e.Name), g); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// SetMatchDuration changes the duration given to matches composed from now
// on. Pending and active matches keep theirs.
func (s *Session) SetMatchDuration(minutes float64) error {
	if minutes <= 0 {
		return fmt.Errorf("%w: match duration must be positive, got %g", config.ErrInvalid, minutes)
	}
	s.duration = minutes
	return nil
}

func (s *Session) MatchDuration() float64 { return s.duration }

// Now is the current simulated minute.
func (s *Session) Now() int { return s.now }

func (s *Session) Facility() config.Facility { return s.facility }

func (s *Session) Registry() *roster.Registry { return s.registry }

// Matches returns every match composed so far, in creation order.
func (s *Session) Matches() []*Match { return s.matches }

func (s *Session) Pending() []*Match { return s.courts.pending }

func (s *Session) Active() []*Match { return s.courts.active }

func (s *Session) Courts() []Court { return s.courts.courts }

// Tick advances the clock one minute and runs, in order: retirement,
// assignment, backfill and wait accrual.
func (s *Session) Tick() (Snapshot, error) {
	s.now++

	for _, m := range s.courts.retire(s.now, s.registry) {
		s.log.Debug().Int("minute", s.now).Int("match", int(m.ID)).Int("court", m.Court).Msg("match retired")
	}
	for _, m := range s.courts.assign(s.now, s.registry) {
		s.log.Debug().Int("minute", s.now).Int("match", int(m.ID)).Int("court", m.Court).Msg("match placed")
	}
	if s.courts.freeCourts() > 0 && len(s.courts.pending) < s.pendingTarget {
		s.GenerateMatch()
	}
	s.registry.AccrueWait(s.now)

	if s.opts.CheckInvariants {
		if err := s.CheckInvariants(); err != nil {
			return Snapshot{}, fmt.Errorf("minute %d: %w", s.now, err)
		}
	}
	return s.Snapshot(), nil
}

// GenerateMatch composes one pending match from the waiting players and
// claims them. It reports false, changing nothing, when no match type can
// be filled.
func (s *Session) GenerateMatch() bool {
	p, ok := Compose(s.registry, s.scorer, s.lastType)
	if !ok {
		s.log.Debug().Int("minute", s.now).Msg("no match available")
		return false
	}

	m := &Match{
		ID:       s.nextID,
		Type:     p.Type,
		Teams:    p.Teams,
		Duration: s.duration,
		Score:    p.Score,
		Created:  s.now,
		Start:    -1,
		End:      -1,
	}
	s.nextID++
	s.registry.Claim(m.Players())
	s.courts.enqueue(m)
	s.matches = append(s.matches, m)
	s.lastType = m.Type

	s.log.Debug().
		Int("minute", s.now).
		Int("match", int(m.ID)).
		Str("type", string(m.Type)).
		Int("score", m.Score).
		Msg("match composed")
	return true
}
