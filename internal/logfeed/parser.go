package logfeed

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/spunkybot/urtadmind/internal/boterr"
)

var (
	linePrefixRe = regexp.MustCompile(`^\s*(\d{1,2}:\d{2})\s+(.*)$`)
	namedEventRe = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9]*):\s?(.*)$`)

	bombPlantedRe   = regexp.MustCompile(`^Bomb was planted by (\d+)`)
	bombDefusedRe   = regexp.MustCompile(`^Bomb was defused by (\d+)`)
	bombTossedRe    = regexp.MustCompile(`^Bomb was tossed by (\d+)`)
	bombCollectedRe = regexp.MustCompile(`^Bomb has been collected by (\d+)`)
	bombholderRe    = regexp.MustCompile(`^Bombholder is (\d+)`)
)

// ParseLine splits a raw game-log line into an Event. A line without
// the "mm:ss" timestamp prefix returns ErrParseMalformed, which the
// tailer logs and skips; it never aborts on one bad line. A timestamped
// line with no recognised event returns EventUnknown with no error.
func ParseLine(raw string) (Event, error) {
	m := linePrefixRe.FindStringSubmatch(raw)
	if m == nil {
		return Event{}, boterr.ErrParseMalformed
	}
	ts, rest := m[1], strings.TrimSpace(m[2])

	if nm := namedEventRe.FindStringSubmatch(rest); nm != nil {
		return Event{Type: EventType(nm[1]), Timestamp: ts, Payload: strings.TrimSpace(nm[2]), Raw: raw}, nil
	}

	switch {
	case bombPlantedRe.MatchString(rest), bombDefusedRe.MatchString(rest),
		bombTossedRe.MatchString(rest), bombCollectedRe.MatchString(rest), bombholderRe.MatchString(rest):
		return Event{Type: EventBomb, Timestamp: ts, Payload: rest, Raw: raw}, nil
	case rest == "Pop":
		return Event{Type: EventPop, Timestamp: ts, Payload: rest, Raw: raw}, nil
	}

	return Event{Type: EventUnknown, Timestamp: ts, Payload: rest, Raw: raw}, nil
}

// ParseKV decodes a backslash-delimited `\key\value\key2\value2` blob
// into a map, the shared shape of InitGame/ClientUserinfo payloads.
func ParseKV(payload string) map[string]string {
	trimmed := strings.TrimPrefix(payload, `\`)
	split := strings.Split(trimmed, `\`)
	kv := make(map[string]string, len(split)/2)
	for i := 0; i+1 < len(split); i += 2 {
		kv[split[i]] = split[i+1]
	}
	return kv
}

// InitGameInfo is the subset of InitGame's key/value payload the
// tailer snapshots at startup and on every InitGame line.
type InitGameInfo struct {
	GameType    int
	ModVersion  int // 41, 42 or 43
	DefaultGear string
	Mapname     string
}

// ParseInitGame decodes an InitGame payload.
func ParseInitGame(payload string) InitGameInfo {
	kv := ParseKV(payload)
	info := InitGameInfo{Mapname: kv["mapname"], DefaultGear: kv["g_gear"]}
	info.GameType, _ = strconv.Atoi(kv["g_gametype"])
	info.ModVersion = parseModVersion(kv["g_modversion"])
	return info
}

// parseModVersion reduces a dotted mod version string ("4.3.4") or a
// bare one ("43") to the mod's {41,42,43} version set.
func parseModVersion(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 42
	}
	if strings.Contains(raw, ".") {
		parts := strings.SplitN(raw, ".", 3)
		if len(parts) >= 2 {
			major, _ := strconv.Atoi(parts[0])
			minor, _ := strconv.Atoi(parts[1])
			return major*10 + minor
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 42
	}
	return n
}

// ClientUserinfo is the decoded payload of a ClientUserinfo line.
type ClientUserinfo struct {
	Slot      int
	Name      string
	Guid      string
	Authname  string
	Address   string
	Challenge bool
}

var slotPrefixRe = regexp.MustCompile(`^(\d+)\s+(.*)$`)

// ParseClientUserinfo decodes "<slot> \name\..\ip\..\cl_guid\..". Bot
// clients get a synthetic "BOT<slot>" guid when cl_guid is absent.
func ParseClientUserinfo(payload string) (ClientUserinfo, error) {
	m := slotPrefixRe.FindStringSubmatch(payload)
	if m == nil {
		return ClientUserinfo{}, boterr.ErrParseMalformed
	}
	slot, _ := strconv.Atoi(m[1])
	kv := ParseKV(m[2])

	guid := kv["cl_guid"]
	if guid == "" {
		guid = fmt.Sprintf("BOT%d", slot)
	}
	ip := kv["ip"]
	if idx := strings.IndexByte(ip, ':'); idx != -1 {
		ip = ip[:idx]
	}
	_, hasChallenge := kv["challenge"]
	return ClientUserinfo{
		Slot:      slot,
		Name:      kv["name"],
		Guid:      guid,
		Authname:  kv["authname"],
		Address:   ip,
		Challenge: hasChallenge,
	}, nil
}

// ClientUserinfoChanged is the decoded payload of a
// ClientUserinfoChanged line.
type ClientUserinfoChanged struct {
	Slot int
	Team int
	Name string
}

// ParseClientUserinfoChanged decodes "<slot> \t\<team>\n\<name>".
func ParseClientUserinfoChanged(payload string) (ClientUserinfoChanged, error) {
	m := slotPrefixRe.FindStringSubmatch(payload)
	if m == nil {
		return ClientUserinfoChanged{}, boterr.ErrParseMalformed
	}
	slot, _ := strconv.Atoi(m[1])
	kv := ParseKV(m[2])
	team, _ := strconv.Atoi(kv["t"])
	return ClientUserinfoChanged{Slot: slot, Team: team, Name: kv["n"]}, nil
}

// KillEvent is the decoded payload of a Kill line.
type KillEvent struct {
	Killer int
	Victim int
	Cause  int
}

var killRe = regexp.MustCompile(`^(-?\d+)\s+(-?\d+)\s+(\d+):`)

// ParseKill decodes "<killer> <victim> <causeId>: ...".
// `<non-client>` killer slots surface as -1, meaning World.
func ParseKill(payload string) (KillEvent, error) {
	m := killRe.FindStringSubmatch(payload)
	if m == nil {
		return KillEvent{}, boterr.ErrParseMalformed
	}
	killer, _ := strconv.Atoi(m[1])
	victim, _ := strconv.Atoi(m[2])
	cause, _ := strconv.Atoi(m[3])
	return KillEvent{Killer: killer, Victim: victim, Cause: cause}, nil
}

// HitEvent is the decoded payload of a Hit line.
type HitEvent struct {
	Victim int
	Hitter int
	Zone   int
	Weapon int
}

var hitRe = regexp.MustCompile(`^(\d+)\s+(\d+)\s+(\d+)\s+(\d+):`)

// ParseHit decodes "<victim> <hitter> <zoneId> <weaponId>: ...".
func ParseHit(payload string) (HitEvent, error) {
	m := hitRe.FindStringSubmatch(payload)
	if m == nil {
		return HitEvent{}, boterr.ErrParseMalformed
	}
	victim, _ := strconv.Atoi(m[1])
	hitter, _ := strconv.Atoi(m[2])
	zone, _ := strconv.Atoi(m[3])
	weapon, _ := strconv.Atoi(m[4])
	return HitEvent{Victim: victim, Hitter: hitter, Zone: zone, Weapon: weapon}, nil
}

// FlagEvent is the decoded payload of a Flag line; Action is 1 (return)
// or 2 (capture).
type FlagEvent struct {
	Slot   int
	Action int
}

var flagRe = regexp.MustCompile(`^(\d+)\s+(\d+):`)

// ParseFlag decodes "<slot> <action>:".
func ParseFlag(payload string) (FlagEvent, error) {
	m := flagRe.FindStringSubmatch(payload)
	if m == nil {
		return FlagEvent{}, boterr.ErrParseMalformed
	}
	slot, _ := strconv.Atoi(m[1])
	action, _ := strconv.Atoi(m[2])
	return FlagEvent{Slot: slot, Action: action}, nil
}

// ParseFlagCaptureTime decodes "<slot>: <ms>" into slot and
// milliseconds.
func ParseFlagCaptureTime(payload string) (slot int, ms int, err error) {
	parts := strings.SplitN(payload, ":", 2)
	if len(parts) != 2 {
		return 0, 0, boterr.ErrParseMalformed
	}
	slot, errSlot := strconv.Atoi(strings.TrimSpace(parts[0]))
	ms, errMs := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errSlot != nil || errMs != nil {
		return 0, 0, boterr.ErrParseMalformed
	}
	return slot, ms, nil
}

// BombAction enumerates the distinct bomb-prose sentences.
type BombAction string

const (
	BombPlanted   BombAction = "planted"
	BombDefused   BombAction = "defused"
	BombTossed    BombAction = "tossed"
	BombCollected BombAction = "collected"
	BombholderIs  BombAction = "holder"
)

// BombEvent is the decoded payload of a Bomb-prose line.
type BombEvent struct {
	Action BombAction
	Slot   int
}

// ParseBomb decodes one of the five Bomb-prose sentences into a slot
// and action.
func ParseBomb(payload string) (BombEvent, error) {
	for _, c := range []struct {
		re     *regexp.Regexp
		action BombAction
	}{
		{bombPlantedRe, BombPlanted},
		{bombDefusedRe, BombDefused},
		{bombTossedRe, BombTossed},
		{bombCollectedRe, BombCollected},
		{bombholderRe, BombholderIs},
	} {
		if m := c.re.FindStringSubmatch(payload); m != nil {
			slot, _ := strconv.Atoi(m[1])
			return BombEvent{Action: c.action, Slot: slot}, nil
		}
	}
	return BombEvent{}, boterr.ErrParseMalformed
}

// SayEvent is the decoded payload of a say/sayteam/saytell line.
type SayEvent struct {
	Slot int
	Name string
	Text string
}

var sayRe = regexp.MustCompile(`^(\d+)\s+(.+?):\s?(.*)$`)

// ParseSay decodes "<slot> <name>: <text>".
func ParseSay(payload string) (SayEvent, error) {
	m := sayRe.FindStringSubmatch(payload)
	if m == nil {
		return SayEvent{}, boterr.ErrParseMalformed
	}
	slot, _ := strconv.Atoi(m[1])
	return SayEvent{Slot: slot, Name: m[2], Text: m[3]}, nil
}

// ParseSlotOnly decodes a payload whose entirety is one slot number,
// used by ClientBegin/ClientDisconnect/ClientSpawn.
func ParseSlotOnly(payload string) (int, error) {
	payload = strings.TrimSpace(strings.TrimSuffix(payload, ":"))
	slot, err := strconv.Atoi(payload)
	if err != nil {
		return 0, boterr.ErrParseMalformed
	}
	return slot, nil
}

// ParseSurvivorWinner decodes "Red"/"Blue"/"Draw".
func ParseSurvivorWinner(payload string) string {
	return strings.TrimSpace(payload)
}

// ParseFreezeThaw decodes "<slot>: ..." as used by Freeze/ThawOutFinished.
func ParseFreezeThaw(payload string) (int, error) {
	parts := strings.SplitN(payload, ":", 2)
	slot, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, boterr.ErrParseMalformed
	}
	return slot, nil
}
