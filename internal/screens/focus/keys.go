package focus

import "charm.land/bubbles/v2/key"

type keyMap struct {
	Start       key.Binding
	Toggle      key.Binding
	Skip        key.Binding
	Back        key.Binding
	ResetBlock  key.Binding
	ResetCycle  key.Binding
	NextSubject key.Binding
	PrevSubject key.Binding
	Refresh     key.Binding
	History     key.Binding
	Dismiss     key.Binding
	Quit        key.Binding
	Confirm     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Start:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "Start")),
		Toggle:      key.NewBinding(key.WithKeys("space"), key.WithHelp("Space", "Pause")),
		Skip:        key.NewBinding(key.WithKeys("s"), key.WithHelp("S", "Skip")),
		Back:        key.NewBinding(key.WithKeys("b"), key.WithHelp("B", "Undo block")),
		ResetBlock:  key.NewBinding(key.WithKeys("r"), key.WithHelp("R", "Reset block")),
		ResetCycle:  key.NewBinding(key.WithKeys("R"), key.WithHelp("Shift+R", "Reset cycle")),
		NextSubject: key.NewBinding(key.WithKeys("tab"), key.WithHelp("Tab", "Subject")),
		PrevSubject: key.NewBinding(key.WithKeys("shift+tab")),
		Refresh:     key.NewBinding(key.WithKeys("u"), key.WithHelp("U", "Refresh")),
		History:     key.NewBinding(key.WithKeys("h"), key.WithHelp("H", "History")),
		Dismiss:     key.NewBinding(key.WithKeys("x")),
		Quit:        key.NewBinding(key.WithKeys("q"), key.WithHelp("Q", "Quit")),
		Confirm:     key.NewBinding(key.WithKeys("y", "Y")),
	}
}
