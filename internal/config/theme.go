package config

// Theme holds the colors of human readable CLI output
type Theme struct {
	// Preset name ("default" or "monochrome") the other fields fall back to
	Preset string `mapstructure:"preset" yaml:"preset"`

	Accent  string `mapstructure:"accent" yaml:"accent"`
	Title   string `mapstructure:"title" yaml:"title"`
	Subtle  string `mapstructure:"subtle" yaml:"subtle"`
	Normal  string `mapstructure:"normal" yaml:"normal"`
	Success string `mapstructure:"success" yaml:"success"`
	Warning string `mapstructure:"warning" yaml:"warning"`
	Error   string `mapstructure:"error" yaml:"error"`
}

var presets = map[string]Theme{
	"default": {
		Preset:  "default",
		Accent:  "#874BFD",
		Title:   "#D75FD7",
		Subtle:  "#585858",
		Normal:  "#D0D0D0",
		Success: "#5FD75F",
		Warning: "#FFD700",
		Error:   "#FF5F5F",
	},
	"monochrome": {
		Preset:  "monochrome",
		Accent:  "#FFFFFF",
		Title:   "#FFFFFF",
		Subtle:  "#585858",
		Normal:  "#D0D0D0",
		Success: "#FFFFFF",
		Warning: "#FFFFFF",
		Error:   "#FFFFFF",
	},
}

// Preset returns a copy of the named theme; unknown names get the default
func Preset(name string) *Theme {
	t, ok := presets[name]
	if !ok {
		t = presets["default"]
	}
	return &t
}

// ApplyDefaults fills in missing colors from the preset
func (t *Theme) ApplyDefaults() {
	base := Preset(t.Preset)
	if _, ok := presets[t.Preset]; !ok {
		t.Preset = base.Preset
	}
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&t.Accent, base.Accent)
	fill(&t.Title, base.Title)
	fill(&t.Subtle, base.Subtle)
	fill(&t.Normal, base.Normal)
	fill(&t.Success, base.Success)
	fill(&t.Warning, base.Warning)
	fill(&t.Error, base.Error)
}
