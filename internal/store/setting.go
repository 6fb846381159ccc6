package store

// modelSetting holds the current model name and the default it resets to.
type modelSetting struct {
	current string
	def     string
}

func newModelSetting(def string) *modelSetting {
	return &modelSetting{current: def, def: def}
}

func (m *modelSetting) set(name string) { m.current = name }
func (m *modelSetting) get() string     { return m.current }
func (m *modelSetting) reset()          { m.current = m.def }
