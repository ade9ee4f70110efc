package entities

// Platform identifies one of the synchronized record-keeping systems.
type Platform string

const (
	PlatformGitHub Platform = "github"
	PlatformGitLab Platform = "gitlab"
	PlatformNotion Platform = "notion"
)

// KnownPlatforms lists every platform the engine can relay between.
// Adding a platform is a matter of enumerating it here and registering
// a connector for it.
var KnownPlatforms = []Platform{
	PlatformGitHub,
	PlatformGitLab,
	PlatformNotion,
}

// IsKnowledgeBase reports whether the platform is the structured
// knowledge-base side of the bridge.
func (p Platform) IsKnowledgeBase() bool {
	return p == PlatformNotion
}

// Valid reports whether the platform is one the engine knows about.
func (p Platform) Valid() bool {
	for _, known := range KnownPlatforms {
		if p == known {
			return true
		}
	}
	return false
}

// Direction describes which way a change is being relayed.
type Direction string

const (
	DirectionTrackerToKnowledge Direction = "tracker_to_kb"
	DirectionKnowledgeToTracker Direction = "kb_to_tracker"
)

// DirectionFor returns the relay direction for a change originating on
// the given platform.
func DirectionFor(source Platform) Direction {
	if source.IsKnowledgeBase() {
		return DirectionKnowledgeToTracker
	}
	return DirectionTrackerToKnowledge
}

// ActionType is the kind of change carried by an inbound event.
type ActionType string

const (
	ActionCreate  ActionType = "create"
	ActionUpdate  ActionType = "update"
	ActionComment ActionType = "comment"
	ActionClose   ActionType = "close"
	ActionReopen  ActionType = "reopen"
)

// Valid reports whether the action is a recognised change kind.
func (a ActionType) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionComment, ActionClose, ActionReopen:
		return true
	}
	return false
}
