package assignment

import "github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/domain"

// Lookup carries the reference data unification reads from. Both maps may
// be nil; missing entries only degrade display names and push the request
// to the end of the pickup order.
type Lookup struct {
	BoardingPoints map[string]domain.BoardingPoint
	Riders         map[string]domain.Rider
}

func (l Lookup) sequenceOrder(boardingPointID string) int {
	if bp, ok := l.BoardingPoints[boardingPointID]; ok {
		return bp.SequenceOrder
	}
	return domain.UnknownSequenceOrder
}

// Unify merges both demand sources into one priority-tagged list.
// Recurring requests come first, each source keeps its input order.
func Unify(recurring []*domain.RecurringRequest, oneOff []*domain.OneOffRequest, lookup Lookup) []domain.UnifiedRequest {
	unified := make([]domain.UnifiedRequest, 0, len(recurring)+len(oneOff))

	for _, r := range recurring {
		displayName := r.RiderID
		if rider, ok := lookup.Riders[r.RiderID]; ok && rider.Name != "" {
			displayName = rider.Name
		}
		unified = append(unified, domain.UnifiedRequest{
			ID:              domain.RecurringIDPrefix + r.ID,
			SourceID:        r.ID,
			SourceKind:      domain.SourceRecurring,
			Priority:        domain.PriorityMustServe,
			RouteID:         r.RouteID,
			TimeSlotID:      r.TimeSlotID,
			BoardingPointID: r.BoardingPointID,
			DropOffPointID:  r.DropOffPointID,
			RiderID:         r.RiderID,
			DisplayName:     displayName,
			SequenceOrder:   lookup.sequenceOrder(r.BoardingPointID),
		})
	}

	for _, o := range oneOff {
		unified = append(unified, domain.UnifiedRequest{
			ID:              domain.OneOffIDPrefix + o.ID,
			SourceID:        o.ID,
			SourceKind:      domain.SourceOneOff,
			Priority:        domain.PriorityFillRemaining,
			RouteID:         o.RouteID,
			TimeSlotID:      o.TimeSlotID,
			BoardingPointID: o.BoardingPointID,
			DropOffPointID:  o.DropOffPointID,
			RiderID:         o.RiderID,
			DisplayName:     o.RiderName,
			SequenceOrder:   lookup.sequenceOrder(o.BoardingPointID),
		})
	}

	return unified
}
