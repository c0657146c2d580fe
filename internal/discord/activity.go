package discord

// ActivityTypeListening renders as "Listening to <name>" in the peer's UI.
const ActivityTypeListening = 2

// Activity is the rich-presence payload of a SET_ACTIVITY command. Optional
// sections are pointers so they are omitted entirely when unset.
type Activity struct {
	Type       int         `json:"type"`
	Name       string      `json:"name,omitempty"`
	Details    string      `json:"details,omitempty"`
	State      string      `json:"state,omitempty"`
	Timestamps *Timestamps `json:"timestamps,omitempty"`
	Assets     *Assets     `json:"assets,omitempty"`
	Buttons    []Button    `json:"buttons,omitempty"`
}

// Timestamps are unix seconds; when both are set the peer renders a
// progress bar from Start to End.
type Timestamps struct {
	Start int64 `json:"start,omitempty"`
	End   int64 `json:"end,omitempty"`
}

type Assets struct {
	LargeImage string `json:"large_image,omitempty"`
	LargeText  string `json:"large_text,omitempty"`
	SmallImage string `json:"small_image,omitempty"`
	SmallText  string `json:"small_text,omitempty"`
}

type Button struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}
