package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pbnadmin/internal/store"
)

const (
	MaxOffers     = 8
	MinOfferSlots = 4

	offersTable = "AFFILIATE_OFFERS"
	offersRowID = 1
	linksTable  = "Links"
	linkColumn  = "Link_P"
)

// Offer is one slot of the offer board. Index is the zero-based slot number
// and picks the affiliate_offer_<Index+1> column and Links row Index+1.
type Offer struct {
	Index int
	Name  string
	Link  string
}

type OfferBoard struct {
	Offers []Offer
}

// CanAddSlot reports whether another empty slot may be shown.
func (b OfferBoard) CanAddSlot() bool {
	return len(b.Offers) < MaxOffers
}

// AddSlot returns the board with an empty slot at the lowest unused index.
// It returns false when every slot is already shown.
func (b OfferBoard) AddSlot() (OfferBoard, bool) {
	if !b.CanAddSlot() {
		return b, false
	}
	used := make(map[int]bool, len(b.Offers))
	for _, o := range b.Offers {
		used[o.Index] = true
	}
	next := 0
	for used[next] {
		next++
	}
	offers := make([]Offer, 0, len(b.Offers)+1)
	inserted := false
	for _, o := range b.Offers {
		if !inserted && o.Index > next {
			offers = append(offers, Offer{Index: next})
			inserted = true
		}
		offers = append(offers, o)
	}
	if !inserted {
		offers = append(offers, Offer{Index: next})
	}
	return OfferBoard{Offers: offers}, true
}

func offerColumn(idx int) string {
	return fmt.Sprintf("affiliate_offer_%d", idx+1)
}

func checkOfferIndex(idx int) error {
	if idx < 0 || idx >= MaxOffers {
		return invalid("Invalid offer", fmt.Sprintf("Offer index must be between 1 and %d.", MaxOffers))
	}
	return nil
}

// DefaultOffers is the board shown before anything has been stored.
func (s *Service) DefaultOffers() OfferBoard {
	var board OfferBoard
	for i := 0; i < MinOfferSlots; i++ {
		name := ""
		if i < len(s.catalog.DefaultOffers) {
			name = s.catalog.DefaultOffers[i]
		}
		board.Offers = append(board.Offers, Offer{Index: i, Name: name})
	}
	return board
}

// LoadOffers reads the offer names and their links. A slot is shown when it
// has a name or is one of the first MinOfferSlots. Without a stored offers
// row the catalog defaults are shown.
func (s *Service) LoadOffers(ctx context.Context) (OfferBoard, error) {
	names := make([]string, MaxOffers)
	row, err := s.gw.ReadRow(ctx, offersTable, offersRowID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		copy(names, s.catalog.DefaultOffers)
	case err != nil:
		return OfferBoard{}, err
	default:
		for i := range names {
			names[i] = row.Get(offerColumn(i))
		}
	}

	var board OfferBoard
	for i, name := range names {
		if name == "" && i >= MinOfferSlots {
			continue
		}
		link, err := s.loadLink(ctx, i)
		if err != nil {
			return OfferBoard{}, err
		}
		board.Offers = append(board.Offers, Offer{Index: i, Name: name, Link: link})
	}
	return board, nil
}

func (s *Service) loadLink(ctx context.Context, idx int) (string, error) {
	row, err := s.gw.ReadRow(ctx, linksTable, int64(idx+1))
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return row.Get(linkColumn), nil
}

// SaveOffer stores the name of offer slot idx. When the offers row does not
// exist yet it is created holding the catalog defaults the board was showing,
// with slot idx replaced by name.
func (s *Service) SaveOffer(ctx context.Context, idx int, name string) error {
	if err := checkOfferIndex(idx); err != nil {
		return err
	}
	err := s.gw.UpdateRow(ctx, offersTable, offersRowID, store.Values{offerColumn(idx): name})
	if errors.Is(err, store.ErrNotFound) {
		seed := store.Values{}
		for i, def := range s.catalog.DefaultOffers {
			if i < MaxOffers {
				seed[offerColumn(i)] = def
			}
		}
		seed[offerColumn(idx)] = name
		err = s.gw.UpsertRow(ctx, offersTable, offersRowID, seed)
	}
	if err != nil {
		return err
	}
	slog.Info("offer saved", "offer", idx+1)
	return nil
}

func (s *Service) SaveLink(ctx context.Context, idx int, link string) error {
	if err := checkOfferIndex(idx); err != nil {
		return err
	}
	if err := s.gw.UpsertRow(ctx, linksTable, int64(idx+1), store.Values{linkColumn: link}); err != nil {
		return err
	}
	slog.Info("offer link saved", "offer", idx+1)
	return nil
}
