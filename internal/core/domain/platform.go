package domain

// Platform identifies a supported social network.
type Platform string

// Supported platforms.
const (
	PlatformTwitter   Platform = "twitter"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformDiscord   Platform = "discord"
	PlatformWhatsApp  Platform = "whatsapp"
)

// Action is a CLI-level operation against a platform.
type Action string

// Supported actions. Not every platform supports every action; an
// unsupported combination raises CapabilityError before any auth work.
const (
	ActionPost           Action = "post"
	ActionLike           Action = "like"
	ActionDelete         Action = "delete"
	ActionShare          Action = "share"
	ActionVideo          Action = "video"
	ActionSchedule       Action = "schedule"
	ActionAuthorize      Action = "authorize"
	ActionTemplate       Action = "template"
	ActionLastFromFeed   Action = "last-from-feed"
	ActionRandomFromFeed Action = "random-from-feed"
)

// capabilities maps each platform to the actions it supports. Every
// platform supports authorize and schedule implicitly.
var capabilities = map[Platform][]Action{
	PlatformTwitter:   {ActionPost, ActionLike, ActionDelete, ActionShare, ActionVideo, ActionLastFromFeed, ActionRandomFromFeed},
	PlatformFacebook:  {ActionPost, ActionDelete, ActionVideo},
	PlatformInstagram: {ActionPost, ActionVideo},
	PlatformLinkedIn:  {ActionPost, ActionDelete, ActionShare},
	PlatformDiscord:   {ActionPost, ActionDelete},
	PlatformWhatsApp:  {ActionPost, ActionTemplate},
}

// Supports reports whether a platform can perform an action.
func (p Platform) Supports(action Action) bool {
	if action == ActionAuthorize || action == ActionSchedule {
		return true
	}
	for _, a := range capabilities[p] {
		if a == action {
			return true
		}
	}
	return false
}

// CheckCapability returns a CapabilityError when the platform cannot
// perform the action, before any auth or network work.
func (p Platform) CheckCapability(action Action) error {
	if !p.Supports(action) {
		return &CapabilityError{Platform: string(p), Action: string(action)}
	}
	return nil
}

// String implements fmt.Stringer.
func (p Platform) String() string { return string(p) }

// String implements fmt.Stringer.
func (a Action) String() string { return string(a) }
