package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down  key.Binding
	Up    key.Binding
	Left  key.Binding
	Right key.Binding

	// Moving the selected task
	MoveDown  key.Binding
	MoveUp    key.Binding
	MoveLeft  key.Binding
	MoveRight key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Task actions
	New     key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Archive key.Binding

	// Filters
	Search         key.Binding
	FilterCategory key.Binding
	FilterTag      key.Binding
	ClearFilters   key.Binding

	// Other views
	ArchiveView key.Binding
	Categories  key.Binding
	Tags        key.Binding
	Notes       key.Binding
	Progress    key.Binding
	Settings    key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh and archive sweep
	Refresh key.Binding
	Sweep   key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "prev column"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "next column"),
		),
		MoveDown: key.NewBinding(
			key.WithKeys("J", "shift+down"),
			key.WithHelp("J", "move task down"),
		),
		MoveUp: key.NewBinding(
			key.WithKeys("K", "shift+up"),
			key.WithHelp("K", "move task up"),
		),
		MoveLeft: key.NewBinding(
			key.WithKeys("H", "shift+left"),
			key.WithHelp("H", "move to prev column"),
		),
		MoveRight: key.NewBinding(
			key.WithKeys("L", "shift+right"),
			key.WithHelp("L", "move to next column"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open detail"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new task"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit task"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Archive: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "archive task"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		FilterCategory: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "cycle category filter"),
		),
		FilterTag: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "cycle tag filter"),
		),
		ClearFilters: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear filters"),
		),
		ArchiveView: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "archive"),
		),
		Categories: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "categories"),
		),
		Tags: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "tags"),
		),
		Notes: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "notes"),
		),
		Progress: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "time progress"),
		),
		Settings: key.NewBinding(
			key.WithKeys(","),
			key.WithHelp(",", "settings"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload board"),
		),
		Sweep: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "archive old done tasks"),
		),
	}
}

// FullHelp returns all keybindings grouped the way the help overlay
// lists them: board, moving tasks, task actions, filters, views.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Select, k.Back, k.Quit},
		{k.MoveUp, k.MoveDown, k.MoveLeft, k.MoveRight},
		{k.New, k.Edit, k.Delete, k.Archive, k.Refresh, k.Sweep},
		{k.Search, k.FilterCategory, k.FilterTag, k.ClearFilters},
		{k.ArchiveView, k.Categories, k.Tags, k.Notes, k.Progress, k.Settings, k.Command, k.Help},
	}
}
