package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the dashboard keybindings.
type KeyMap struct {
	PrevYear     key.Binding
	NextYear     key.Binding
	MoreClusters key.Binding
	FewClusters  key.Binding
	ToggleMode   key.Binding
	Refresh      key.Binding
	Quit         key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		PrevYear: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev year"),
		),
		NextYear: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next year"),
		),
		MoreClusters: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "more clusters"),
		),
		FewClusters: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "fewer clusters"),
		),
		ToggleMode: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "kmeans/dbscan"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp lists the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevYear, k.NextYear, k.MoreClusters, k.FewClusters, k.ToggleMode, k.Refresh, k.Quit}
}
