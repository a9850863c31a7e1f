package memory

import (
	"sync"

	"prizepool/domain/entities"
)

// Store keeps pool state in process memory. Units of work operate on a
// private copy and swap it in on commit, so a rollback leaves no trace.
type Store struct {
	mu    sync.Mutex
	state *state
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{state: &state{}}
}

type state struct {
	epochs      []*entities.Epoch
	ranges      []*entities.TicketRange
	claims      []*entities.ClaimRecord
	settings    *entities.PoolSettings
	bonusAssets []*entities.BonusAsset
	nextRangeID int64
}

func (s *state) clone() *state {
	c := &state{
		epochs:      make([]*entities.Epoch, len(s.epochs)),
		ranges:      make([]*entities.TicketRange, len(s.ranges)),
		claims:      make([]*entities.ClaimRecord, len(s.claims)),
		bonusAssets: make([]*entities.BonusAsset, len(s.bonusAssets)),
		nextRangeID: s.nextRangeID,
	}
	for i, e := range s.epochs {
		c.epochs[i] = copyEpoch(e)
	}
	for i, r := range s.ranges {
		c.ranges[i] = copyRange(r)
	}
	for i, cr := range s.claims {
		cp := *cr
		c.claims[i] = &cp
	}
	for i, b := range s.bonusAssets {
		cp := *b
		c.bonusAssets[i] = &cp
	}
	if s.settings != nil {
		cp := *s.settings
		c.settings = &cp
	}
	return c
}

func copyEpoch(e *entities.Epoch) *entities.Epoch {
	cp := *e
	return &cp
}

func copyRange(r *entities.TicketRange) *entities.TicketRange {
	cp := *r
	return &cp
}
