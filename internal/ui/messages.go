package ui

// StatusMsg asks the root model to show a message in the status bar.
type StatusMsg struct {
	Text string
	Err  bool
}

// CloseMsg is sent by a secondary view when the user leaves it.
type CloseMsg struct{}

// ChangedMsg is sent by a view after it changed data shown on the board.
type ChangedMsg struct{}
