package dataset

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"

	"github.com/verte-zerg/peloton/internal/model"
	"github.com/verte-zerg/peloton/internal/standings"
)

// Avatar pairs a rider number with the avatar reference it was found in.
type Avatar struct {
	Number int
	Src    string
}

// MarshalJSON encodes an avatar as a [number, src] pair.
func (a Avatar) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{a.Number, a.Src})
}

// RiderNames returns every distinct rider name across all stages, sorted.
func RiderNames(stages []model.Stage) []string {
	seen := map[string]struct{}{}
	for _, stage := range stages {
		for _, rider := range stage.Riders {
			seen[rider.Name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Avatars returns one avatar per rider number, sorted by number. A later stage
// overrides the reference seen in an earlier one.
func Avatars(stages []model.Stage, pattern string) ([]Avatar, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid avatar pattern: %w", err)
	}
	byNumber := map[int]string{}
	for _, stage := range stages {
		for _, rider := range stage.Riders {
			idx, err := standings.AvatarIndex(rider.Avatar, re)
			if err != nil {
				return nil, fmt.Errorf("stage %q, rider %q: %w", stage.Index, rider.Name, err)
			}
			byNumber[idx+1] = rider.Avatar
		}
	}
	out := make([]Avatar, 0, len(byNumber))
	for n, src := range byNumber {
		out = append(out, Avatar{Number: n, Src: src})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Number < out[j].Number
	})
	return out, nil
}
