package commands

import (
	"strconv"
	"strings"

	"github.com/spunkybot/urtadmind/internal/boterr"
	"github.com/spunkybot/urtadmind/internal/game"
)

// Roster is the read surface the dispatcher needs to resolve chat
// command targets without importing the full Game model.
type Roster interface {
	ConnectedPlayers() []*game.Player
	Player(slot int) *game.Player
	AllMaps() []string
	NextMap() string
}

// OfflineLookup resolves an `@<id>` target against the persistence
// gateway for players who are not currently connected.
type OfflineLookup interface {
	LookupOffline(id int64) (*game.OfflinePlayer, bool)
}

// ResolveTarget finds the single player raw names to: an exact name
// match, a bare slot number, `@<id>` (possibly offline), or a
// case-insensitive substring. Ambiguous substring matches return
// boterr.ErrTargetAmbiguous along with the list of candidate names.
func ResolveTarget(roster Roster, offline OfflineLookup, raw string) (game.Target, []string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil, boterr.ErrInvalidArgument
	}

	if strings.HasPrefix(raw, "@") {
		id, err := strconv.ParseInt(raw[1:], 10, 64)
		if err != nil {
			return nil, nil, boterr.ErrInvalidArgument
		}
		if offline != nil {
			if p, ok := offline.LookupOffline(id); ok {
				return p, nil, nil
			}
		}
		return nil, nil, boterr.ErrTargetNotFound
	}

	if slot, err := strconv.Atoi(raw); err == nil {
		p := roster.Player(slot)
		if p == nil {
			return nil, nil, boterr.ErrTargetNotFound
		}
		return p, nil, nil
	}

	var exact game.Target
	var substr []*game.Player
	for _, p := range roster.ConnectedPlayers() {
		if strings.EqualFold(p.Name, raw) {
			exact = p
		}
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(raw)) {
			substr = append(substr, p)
		}
	}
	if exact != nil {
		return exact, nil, nil
	}
	switch len(substr) {
	case 0:
		return nil, nil, boterr.ErrTargetNotFound
	case 1:
		return substr[0], nil, nil
	default:
		names := make([]string, len(substr))
		for i, p := range substr {
			names[i] = p.Name
		}
		return nil, names, boterr.ErrTargetAmbiguous
	}
}
