package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"prizepool/domain/entities"
)

type epochRepository struct {
	st *state
}

func (r *epochRepository) Create(ctx context.Context, epoch *entities.Epoch) error {
	epoch.ID = int64(len(r.st.epochs)) + 1
	epoch.CreatedAt = time.Now()
	r.st.epochs = append(r.st.epochs, copyEpoch(epoch))
	return nil
}

func (r *epochRepository) GetByID(ctx context.Context, id int64) (*entities.Epoch, error) {
	if id < 1 || id > int64(len(r.st.epochs)) {
		return nil, nil
	}
	return copyEpoch(r.st.epochs[id-1]), nil
}

func (r *epochRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Epoch, error) {
	return r.GetByID(ctx, id)
}

func (r *epochRepository) GetActive(ctx context.Context) (*entities.Epoch, error) {
	for _, e := range r.st.epochs {
		if e.IsActive() {
			return copyEpoch(e), nil
		}
	}
	return nil, nil
}

func (r *epochRepository) GetLatestConcluded(ctx context.Context) (*entities.Epoch, error) {
	var latest *entities.Epoch
	for _, e := range r.st.epochs {
		if !e.IsEnded() || e.EndTime == nil {
			continue
		}
		if latest == nil || !e.EndTime.Before(*latest.EndTime) {
			latest = e
		}
	}
	if latest == nil {
		return nil, nil
	}
	return copyEpoch(latest), nil
}

func (r *epochRepository) GetRecent(ctx context.Context, limit int) ([]*entities.Epoch, error) {
	var epochs []*entities.Epoch
	for i := len(r.st.epochs) - 1; i >= 0 && len(epochs) < limit; i-- {
		epochs = append(epochs, copyEpoch(r.st.epochs[i]))
	}
	return epochs, nil
}

func (r *epochRepository) GetLockedConcludedBefore(ctx context.Context, before time.Time) ([]*entities.Epoch, error) {
	var epochs []*entities.Epoch
	for _, e := range r.st.epochs {
		if e.IsEnded() && !e.WithdrawalOpen && e.EndTime != nil && !e.EndTime.After(before) {
			epochs = append(epochs, copyEpoch(e))
		}
	}
	return epochs, nil
}

func (r *epochRepository) Update(ctx context.Context, epoch *entities.Epoch) error {
	if epoch.ID < 1 || epoch.ID > int64(len(r.st.epochs)) {
		return fmt.Errorf("epoch with ID %d not found", epoch.ID)
	}
	r.st.epochs[epoch.ID-1] = copyEpoch(epoch)
	return nil
}

type ticketRangeRepository struct {
	st *state
}

func (r *ticketRangeRepository) Append(ctx context.Context, tr *entities.TicketRange) error {
	r.st.nextRangeID++
	tr.ID = r.st.nextRangeID
	tr.CreatedAt = time.Now()
	r.st.ranges = append(r.st.ranges, copyRange(tr))
	return nil
}

func (r *ticketRangeRepository) GetByParticipant(ctx context.Context, epochID int64, participant string) (entities.TicketSet, error) {
	var set entities.TicketSet
	for _, tr := range r.st.ranges {
		if tr.EpochID == epochID && tr.Participant == participant {
			set = append(set, copyRange(tr))
		}
	}
	return set, nil
}

func (r *ticketRangeRepository) GetByEpoch(ctx context.Context, epochID int64) ([]*entities.TicketRange, error) {
	var ranges []*entities.TicketRange
	for _, tr := range r.st.ranges {
		if tr.EpochID == epochID {
			ranges = append(ranges, copyRange(tr))
		}
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].StartID < ranges[j].StartID })
	return ranges, nil
}

func (r *ticketRangeRepository) CountByParticipant(ctx context.Context, epochID int64, participant string) (int, error) {
	set, _ := r.GetByParticipant(ctx, epochID, participant)
	return len(set), nil
}

func (r *ticketRangeRepository) FindOwner(ctx context.Context, epochID int64, ticketID uint64) (*entities.TicketRange, error) {
	for _, tr := range r.st.ranges {
		if tr.EpochID == epochID && tr.Contains(ticketID) {
			return copyRange(tr), nil
		}
	}
	return nil, nil
}

func (r *ticketRangeRepository) GetParticipantSummary(ctx context.Context, epochID int64) ([]*entities.ParticipantSummary, error) {
	byParticipant := make(map[string]*entities.ParticipantSummary)
	var summary []*entities.ParticipantSummary
	for _, tr := range r.st.ranges {
		if tr.EpochID != epochID {
			continue
		}
		s, ok := byParticipant[tr.Participant]
		if !ok {
			s = &entities.ParticipantSummary{Participant: tr.Participant}
			byParticipant[tr.Participant] = s
			summary = append(summary, s)
		}
		s.RangeCount++
		s.TicketCount += tr.Count()
	}
	sort.SliceStable(summary, func(i, j int) bool { return summary[i].TicketCount > summary[j].TicketCount })
	return summary, nil
}

type claimRepository struct {
	st *state
}

func (r *claimRepository) Insert(ctx context.Context, record *entities.ClaimRecord) (bool, error) {
	if existing, _ := r.Get(ctx, record.EpochID, record.Participant); existing != nil {
		return false, nil
	}
	cp := *record
	r.st.claims = append(r.st.claims, &cp)
	return true, nil
}

func (r *claimRepository) Get(ctx context.Context, epochID int64, participant string) (*entities.ClaimRecord, error) {
	for _, c := range r.st.claims {
		if c.EpochID == epochID && c.Participant == participant {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *claimRepository) GetByEpoch(ctx context.Context, epochID int64) ([]*entities.ClaimRecord, error) {
	var claims []*entities.ClaimRecord
	for _, c := range r.st.claims {
		if c.EpochID == epochID {
			cp := *c
			claims = append(claims, &cp)
		}
	}
	return claims, nil
}

type poolSettingsRepository struct {
	st *state
}

func (r *poolSettingsRepository) Get(ctx context.Context) (*entities.PoolSettings, error) {
	if r.st.settings == nil {
		return nil, nil
	}
	cp := *r.st.settings
	return &cp, nil
}

func (r *poolSettingsRepository) Initialize(ctx context.Context, defaults *entities.PoolSettings) (*entities.PoolSettings, error) {
	if r.st.settings == nil {
		cp := *defaults
		if cp.UpdatedAt.IsZero() {
			cp.UpdatedAt = time.Now()
		}
		r.st.settings = &cp
	}
	return r.Get(ctx)
}

func (r *poolSettingsRepository) Update(ctx context.Context, settings *entities.PoolSettings) error {
	if r.st.settings == nil {
		return fmt.Errorf("pool settings not initialized")
	}
	cp := *settings
	r.st.settings = &cp
	return nil
}

type bonusAssetRepository struct {
	st *state
}

func (r *bonusAssetRepository) Add(ctx context.Context, asset *entities.BonusAsset) (bool, error) {
	for _, b := range r.st.bonusAssets {
		if b.AssetID == asset.AssetID {
			return false, nil
		}
	}
	cp := *asset
	r.st.bonusAssets = append(r.st.bonusAssets, &cp)
	return true, nil
}

func (r *bonusAssetRepository) Remove(ctx context.Context, assetID string) (bool, error) {
	for i, b := range r.st.bonusAssets {
		if b.AssetID == assetID {
			r.st.bonusAssets = append(r.st.bonusAssets[:i], r.st.bonusAssets[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *bonusAssetRepository) List(ctx context.Context) ([]*entities.BonusAsset, error) {
	assets := make([]*entities.BonusAsset, 0, len(r.st.bonusAssets))
	for _, b := range r.st.bonusAssets {
		cp := *b
		assets = append(assets, &cp)
	}
	return assets, nil
}
