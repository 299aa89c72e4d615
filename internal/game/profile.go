package game

import (
	"fmt"
	"net/url"
	"time"
)

// Default probe and window values applied when a profile omits them.
const (
	DefaultReadyAttempts   = 40
	DefaultReadyIntervalMS = 500
	DefaultWindowWidth     = 1920
	DefaultWindowHeight    = 1080
)

// ReadyProbe describes how to tell that a game page has finished loading.
// The selector is matched against the page source after every poll; a
// leading "//" marks it as XPath, anything else is treated as CSS.
type ReadyProbe struct {
	Selector   string `yaml:"selector" toml:"selector" json:"selector"`
	Attempts   int    `yaml:"attempts" toml:"attempts" json:"attempts"`
	IntervalMS int    `yaml:"interval_ms" toml:"interval_ms" json:"interval_ms"`
}

// Interval returns the poll interval as a duration.
func (p ReadyProbe) Interval() time.Duration {
	return time.Duration(p.IntervalMS) * time.Millisecond
}

// Budget returns the total time the probe may spend before giving up.
func (p ReadyProbe) Budget() time.Duration {
	return time.Duration(p.Attempts) * p.Interval()
}

// Window is the requested browser window geometry.
type Window struct {
	Width  int `yaml:"width" toml:"width" json:"width"`
	Height int `yaml:"height" toml:"height" json:"height"`
}

// Arg renders the geometry as a Chrome command line switch.
func (w Window) Arg() string {
	return fmt.Sprintf("--window-size=%d,%d", w.Width, w.Height)
}

// Scripts holds the JavaScript snippets a driver executes in the game
// page. Load receives the save code as arguments[0] so codes containing
// quotes survive intact. Save, Count and Rate must return a value.
// Prepare is optional cosmetic cleanup run after every page load.
type Scripts struct {
	Load    string `yaml:"load" toml:"load" json:"load"`
	Save    string `yaml:"save" toml:"save" json:"save"`
	Count   string `yaml:"count" toml:"count" json:"count"`
	Rate    string `yaml:"rate" toml:"rate" json:"rate"`
	Prepare string `yaml:"prepare,omitempty" toml:"prepare,omitempty" json:"prepare,omitempty"`
}

// Profile describes a target game: where it lives and how to drive it.
type Profile struct {
	Name    string     `yaml:"name" toml:"name" json:"name"`
	URL     string     `yaml:"url" toml:"url" json:"url"`
	Window  Window     `yaml:"window,omitempty" toml:"window,omitempty" json:"window,omitempty"`
	Ready   ReadyProbe `yaml:"ready" toml:"ready" json:"ready"`
	Scripts Scripts    `yaml:"scripts" toml:"scripts" json:"scripts"`
}

// DefaultName identifies the built-in profile.
const DefaultName = "cookieclicker-beta"

// Default returns the built-in Cookie Clicker beta profile.
func Default() Profile {
	return Profile{
		Name: DefaultName,
		URL:  "https://orteil.dashnet.org/cookieclicker/beta/",
		Window: Window{
			Width:  DefaultWindowWidth,
			Height: DefaultWindowHeight,
		},
		Ready: ReadyProbe{
			Selector:   "#bigCookie",
			Attempts:   DefaultReadyAttempts,
			IntervalMS: DefaultReadyIntervalMS,
		},
		Scripts: Scripts{
			Load: `while (typeof Game.localStorageSet !== "function");
return Game.localStorageSet(Game.SaveTo, arguments[0]);`,
			Save:  `return Game.localStorageGet(Game.SaveTo);`,
			Count: `return Game.cookies;`,
			Rate:  `return Game.cookiesPs * (1 - Game.cpsSucked);`,
			Prepare: `document.getElementById('smallSupport').style.display = 'none';
document.getElementById('topBar').style.display = 'none';
document.getElementById('game').style.top = '0px';
document.getElementsByClassName('cc_banner')[0].style.display = 'none';`,
		},
	}
}

// Validate reports the first problem that would make the profile
// unusable by a driver.
func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}
	if p.URL == "" {
		return fmt.Errorf("profile %s: url is required", p.Name)
	}
	u, err := url.Parse(p.URL)
	if err != nil {
		return fmt.Errorf("profile %s: invalid url: %w", p.Name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("profile %s: url scheme must be http or https, got %q", p.Name, u.Scheme)
	}
	if p.Ready.Selector == "" {
		return fmt.Errorf("profile %s: ready selector is required", p.Name)
	}
	if p.Ready.Attempts < 1 {
		return fmt.Errorf("profile %s: ready attempts must be positive, got %d", p.Name, p.Ready.Attempts)
	}
	if p.Ready.IntervalMS < 1 {
		return fmt.Errorf("profile %s: ready interval must be positive, got %dms", p.Name, p.Ready.IntervalMS)
	}
	if p.Scripts.Load == "" {
		return fmt.Errorf("profile %s: load script is required", p.Name)
	}
	if p.Scripts.Save == "" {
		return fmt.Errorf("profile %s: save script is required", p.Name)
	}
	if p.Scripts.Count == "" {
		return fmt.Errorf("profile %s: count script is required", p.Name)
	}
	if p.Scripts.Rate == "" {
		return fmt.Errorf("profile %s: rate script is required", p.Name)
	}
	return nil
}

// applyDefaults fills zero-valued probe and window fields.
func (p *Profile) applyDefaults() {
	if p.Ready.Attempts == 0 {
		p.Ready.Attempts = DefaultReadyAttempts
	}
	if p.Ready.IntervalMS == 0 {
		p.Ready.IntervalMS = DefaultReadyIntervalMS
	}
	if p.Window.Width == 0 {
		p.Window.Width = DefaultWindowWidth
	}
	if p.Window.Height == 0 {
		p.Window.Height = DefaultWindowHeight
	}
}
