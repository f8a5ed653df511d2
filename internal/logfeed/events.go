// Package logfeed is the Log Tailer & Parser: it follows the
// append-only game log from end-of-file and decodes each line into a
// typed Event for the daemon's dispatch loop.
package logfeed

// EventType names the game-log event kinds the parser recognises.
type EventType string

const (
	EventInitGame              EventType = "InitGame"
	EventClientUserinfo        EventType = "ClientUserinfo"
	EventClientUserinfoChanged EventType = "ClientUserinfoChanged"
	EventClientBegin           EventType = "ClientBegin"
	EventClientDisconnect      EventType = "ClientDisconnect"
	EventClientSpawn           EventType = "ClientSpawn"
	EventKill                  EventType = "Kill"
	EventHit                   EventType = "Hit"
	EventFlag                  EventType = "Flag"
	EventFlagCaptureTime       EventType = "FlagCaptureTime"
	EventBomb                  EventType = "Bomb"
	EventPop                   EventType = "Pop"
	EventSurvivorWinner        EventType = "SurvivorWinner"
	EventFreeze                EventType = "Freeze"
	EventThawOutFinished       EventType = "ThawOutFinished"
	EventExit                  EventType = "Exit"
	EventCallvote              EventType = "Callvote"
	EventVotePassed            EventType = "VotePassed"
	EventVoteFailed            EventType = "VoteFailed"
	EventSay                   EventType = "say"
	EventSayTeam               EventType = "sayteam"
	EventSayTell               EventType = "saytell"
	EventUnknown               EventType = "unknown"
)

// Event is one parsed game-log line: the event kind, its mm:ss
// timestamp prefix and the raw payload after "EventName:".
type Event struct {
	Type      EventType
	Timestamp string
	Payload   string
	Raw       string
}
