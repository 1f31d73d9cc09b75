package display

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Color identifies a named terminal color
type Color string

const (
	ColorReset   Color = "reset"
	ColorRed     Color = "red"
	ColorGreen   Color = "green"
	ColorYellow  Color = "yellow"
	ColorBlue    Color = "blue"
	ColorMagenta Color = "magenta"
	ColorCyan    Color = "cyan"
	ColorWhite   Color = "white"
	ColorGray    Color = "gray"
)

// palette maps the named colors onto fatih/color attributes.
var palette = map[Color]*color.Color{
	ColorReset:   color.New(color.Reset),
	ColorRed:     color.New(color.FgRed),
	ColorGreen:   color.New(color.FgGreen),
	ColorYellow:  color.New(color.FgYellow),
	ColorBlue:    color.New(color.FgBlue),
	ColorMagenta: color.New(color.FgMagenta),
	ColorCyan:    color.New(color.FgCyan),
	ColorWhite:   color.New(color.FgWhite),
	ColorGray:    color.New(color.FgHiBlack),
}

// ColorSystem applies colors to terminal output when the terminal
// supports them.
type ColorSystem interface {
	Colorize(text string, color Color) string
	Sprintf(color Color, format string, args ...interface{}) string
	IsColorSupported() bool
}

type colorSystem struct {
	supported bool
	profile   termenv.Profile
}

// NewColorSystem detects terminal capabilities on stdout.
func NewColorSystem() ColorSystem {
	supported := stdoutSupportsColor()
	if !supported {
		color.NoColor = true
	}
	return &colorSystem{
		supported: supported,
		profile:   termenv.ColorProfile(),
	}
}

// NewPlainColorSystem never emits escape codes. Used for tests and
// non-terminal writers.
func NewPlainColorSystem() ColorSystem {
	return &colorSystem{supported: false, profile: termenv.Ascii}
}

// stdoutSupportsColor combines a tty check with the conventional
// NO_COLOR, TERM=dumb and FORCE_COLOR environment switches.
func stdoutSupportsColor() bool {
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return false
	}
	return os.Getenv("NO_COLOR") == "" && os.Getenv("TERM") != "dumb"
}

func (cs *colorSystem) Colorize(text string, clr Color) string {
	if !cs.supported {
		return text
	}
	if c, ok := palette[clr]; ok {
		return c.Sprint(text)
	}
	return text
}

func (cs *colorSystem) Sprintf(clr Color, format string, args ...interface{}) string {
	return cs.Colorize(fmt.Sprintf(format, args...), clr)
}

func (cs *colorSystem) IsColorSupported() bool {
	return cs.supported
}
