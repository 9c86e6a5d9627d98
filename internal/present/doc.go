// Package present renders schema forests and placeholder sets for the
// terminal: gtree for hierarchy, lipgloss for color, plus the icon and color
// table of field types shared with web front ends.
package present
