package present

import (
	"github.com/charmbracelet/lipgloss"

	"docbind/internal/schema"
)

// TypeStyle is how a field type is shown.
type TypeStyle struct {
	// Icon is the Font Awesome class used by web front ends.
	Icon string
	// Color is a hex RGB color.
	Color string
	// Glyph is the terminal marker.
	Glyph string
}

var fallbackStyle = TypeStyle{Icon: "fa-question", Color: "#95a5a6", Glyph: "?"}

var typeStyles = [schema.TypeTotal]TypeStyle{
	schema.TypeUnknown:   fallbackStyle,
	schema.TypeChar:      {Icon: "fa-font", Color: "#3498db", Glyph: "T"},
	schema.TypeText:      {Icon: "fa-align-left", Color: "#3498db", Glyph: "¶"},
	schema.TypeInteger:   {Icon: "fa-hashtag", Color: "#e74c3c", Glyph: "#"},
	schema.TypeFloat:     {Icon: "fa-calculator", Color: "#e74c3c", Glyph: "±"},
	schema.TypeBoolean:   {Icon: "fa-check-square", Color: "#9b59b6", Glyph: "☑"},
	schema.TypeDate:      {Icon: "fa-calendar", Color: "#f39c12", Glyph: "▦"},
	schema.TypeDatetime:  {Icon: "fa-clock-o", Color: "#f39c12", Glyph: "◷"},
	schema.TypeBinary:    {Icon: "fa-file", Color: "#95a5a6", Glyph: "▤"},
	schema.TypeMonetary:  {Icon: "fa-dollar", Color: "#27ae60", Glyph: "$"},
	schema.TypeHTML:      {Icon: "fa-code", Color: "#e67e22", Glyph: "<>"},
	schema.TypeMany2one:  {Icon: "fa-link", Color: "#1abc9c", Glyph: "→"},
	schema.TypeOne2many:  {Icon: "fa-list", Color: "#16a085", Glyph: "⇉"},
	schema.TypeMany2many: {Icon: "fa-tags", Color: "#16a085", Glyph: "⇄"},
	schema.TypeSelection: {Icon: "fa-list-ul", Color: "#34495e", Glyph: "≡"},
}

// StyleFor returns the style of a field type.
func StyleFor(t schema.FieldType) TypeStyle {
	if t < 0 || int(t) >= len(typeStyles) {
		return fallbackStyle
	}

	return typeStyles[t]
}

// Terminal styles for placeholder listings.
var (
	validStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("28"))
	invalidStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Badge renders the colored glyph of a field type.
func Badge(t schema.FieldType) string {
	s := StyleFor(t)

	return lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).Render(s.Glyph)
}
