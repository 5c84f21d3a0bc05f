package widget

// Indicator is the activity shown below the messages.
type Indicator int

const (
	IndicatorIdle Indicator = iota
	IndicatorTyping
	IndicatorSubmitting
)

func (i Indicator) String() string {
	switch i {
	case IndicatorTyping:
		return "typing"
	case IndicatorSubmitting:
		return "submitting"
	default:
		return "idle"
	}
}

// NoticeLevel classifies a transient notice.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
)

// Notice is a toast-style message outside the transcript.
type Notice struct {
	Level       NoticeLevel
	Title       string
	Description string
}

// Surface renders widget state. Its methods are called with the widget lock
// held, in the order state changes, and must not call back into the Widget.
type Surface interface {
	MessageAppended(m DisplayMessage)
	MessageUpdated(m DisplayMessage)
	IndicatorChanged(i Indicator)
	Notify(n Notice)
	Navigate(path string)
}

// NopSurface discards everything.
type NopSurface struct{}

func (NopSurface) MessageAppended(DisplayMessage) {}
func (NopSurface) MessageUpdated(DisplayMessage)  {}
func (NopSurface) IndicatorChanged(Indicator)     {}
func (NopSurface) Notify(Notice)                  {}
func (NopSurface) Navigate(string)                {}
