package resale

import (
	"regexp"
	"strings"

	"github.com/darkkaiser/resale-watcher/pkg/strutil"
	"github.com/tidwall/gjson"
)

// sectorRunRegex matches the first digit-led run inside a place key, so
// "M-217" yields "217". Place keys are free-form venue codes and are not
// guaranteed to contain digits at all.
var sectorRunRegex = regexp.MustCompile(`[0-9][0-9A-Za-z-]*`)

// ExtractSeatInfo recovers the seat location of one offer from the raw
// availability payload.
//
// It works on the raw bytes rather than the decoded Snapshot because
// "first place" and "first row" mean document order, which Go maps do not
// preserve. Only the first matching group, its first place and that
// place's first row are used; an offer spanning several groups is
// deliberately under-reported.
//
// The second return is false when no group references the offer.
func ExtractSeatInfo(raw []byte, offerID string) (SeatInfo, bool) {
	var info SeatInfo
	var found bool

	gjson.GetBytes(raw, "groups").ForEach(func(_, group gjson.Result) bool {
		if !groupContainsOffer(group, offerID) {
			return true
		}

		found = true

		group.Get("places").ForEach(func(placeKey, rows gjson.Result) bool {
			info.Sector = sectorFromPlaceKey(placeKey.String())

			rows.ForEach(func(rowLabel, seats gjson.Result) bool {
				// Row and seat labels are free-form upstream text.
				info.Row = strutil.NormalizeSpaces(rowLabel.String())

				var labels []string
				seats.ForEach(func(_, seat gjson.Result) bool {
					labels = append(labels, strutil.NormalizeSpaces(seat.String()))
					return true
				})
				info.Seats = strings.Join(labels, ", ")

				return false
			})

			return false
		})

		return false
	})

	return info, found
}

func groupContainsOffer(group gjson.Result, offerID string) bool {
	contains := false
	group.Get("offerIds").ForEach(func(_, id gjson.Result) bool {
		if id.String() == offerID {
			contains = true
			return false
		}
		return true
	})
	return contains
}

// sectorFromPlaceKey extracts the sector text from a place key, falling
// back to the whole key when it contains no digit run.
func sectorFromPlaceKey(placeKey string) string {
	if match := sectorRunRegex.FindString(placeKey); match != "" {
		return match
	}
	return placeKey
}
