package optimizer

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/domain"
)

var validate = validator.New()

// Validate checks a decoded proposal against its schema. It does not
// check the proposal against the input set; that is the repair pass's job.
func Validate(proposal *domain.TripProposal) error {
	if proposal == nil {
		return fmt.Errorf("%w: empty body", ErrInvalidProposal)
	}
	if err := validate.Struct(proposal); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProposal, err)
	}

	for i, trip := range proposal.Trips {
		members := make(map[string]bool, len(trip.MemberIDs))
		for _, id := range trip.MemberIDs {
			members[id] = true
		}
		for _, id := range trip.PickupSequence {
			if !members[id] {
				return fmt.Errorf("%w: trip %d pickup sequence references non-member %q", ErrInvalidProposal, i, id)
			}
		}
	}
	return nil
}
