package policy

// SpamConfig mirrors the bot.spam_* family: independent on/off gates
// for each category of chatter the engine can generate, so a server
// owner can keep teamkill/ban alerts while muting kill-spam chatter.
type SpamConfig struct {
	Announce  bool
	FirstBlood bool
	MultiKill bool
	Streak    bool
	Headshot  bool
	Awards    bool
}

// Announcer gates Engine's categorized broadcasts behind SpamConfig.
// Messages outside any spam_* category (teamkill alerts, forgive
// prompts, team-balance moves) go straight to Actions and are never
// gated here.
type Announcer struct {
	actions Actions
	spam    SpamConfig
}

// NewAnnouncer builds an Announcer over actions using spam.
func NewAnnouncer(actions Actions, spam SpamConfig) *Announcer {
	return &Announcer{actions: actions, spam: spam}
}

func (a *Announcer) emit(gate bool, msg string) {
	if gate {
		a.actions.Broadcast(msg)
	}
}

// FirstBlood announces a one-shot first-kill/first-HE/first-knife event.
func (a *Announcer) FirstBlood(msg string) { a.emit(a.spam.FirstBlood, msg) }

// MultiKill announces a kill count within the 5s multi-kill window.
func (a *Announcer) MultiKill(msg string) { a.emit(a.spam.MultiKill, msg) }

// Streak announces a kill streak crossing a threshold, or its end.
func (a *Announcer) Streak(msg string) { a.emit(a.spam.Streak, msg) }

// Headshot announces a headshot-related milestone.
func (a *Announcer) Headshot(msg string) { a.emit(a.spam.Headshot, msg) }

// Award announces a generic match award (bomb/ctf/freeze accolades).
func (a *Announcer) Award(msg string) { a.emit(a.spam.Awards, msg) }

// General gates messages behind the catch-all spam_announce_msg flag
// (round-start/round-end chatter that doesn't fit a narrower category).
func (a *Announcer) General(msg string) { a.emit(a.spam.Announce, msg) }
