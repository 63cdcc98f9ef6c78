package tool

import (
	"flag"
	"os"
)

// Config holds runtime overrides from CLI flags.
type Config struct {
	Log           string
	UseConfigPath string
	UseRoot       string
	UseListen     string
	UseNotifyURL  string
	UseOut        string
	Args          []string
}

// SetFlags parses CLI flags and returns the override config.
// Flags must precede the command: qrdrop -out qr.png send ASSIGNMENTS notes.txt
func SetFlags() Config {
	return ParseFlags(flag.CommandLine, nil)
}

// ParseFlags registers the flags on fs and parses args. A nil args parses os.Args[1:].
func ParseFlags(fs *flag.FlagSet, args []string) Config {
	var cfg Config
	fs.StringVar(&cfg.Log, "log", "", "log mode: dev|prod|none")
	fs.StringVar(&cfg.UseConfigPath, "config", "", "config file path")
	fs.StringVar(&cfg.UseRoot, "root", "", "override transfer root directory")
	fs.StringVar(&cfg.UseListen, "listen", "", "override control API listen address")
	fs.StringVar(&cfg.UseNotifyURL, "notify", "", "override notification webhook URL")
	fs.StringVar(&cfg.UseOut, "out", "", "output path for rendered QR code")
	if args == nil {
		args = os.Args[1:]
	}
	_ = fs.Parse(args)
	cfg.Args = fs.Args()
	return cfg
}

// Apply copies non-empty overrides onto appCfg.
func (c Config) Apply(appCfg *AppConfig) {
	if c.UseRoot != "" {
		appCfg.Root = c.UseRoot
	}
	if c.UseListen != "" {
		appCfg.API.Listen = c.UseListen
	}
	if c.UseNotifyURL != "" {
		appCfg.Notify.URL = c.UseNotifyURL
	}
}
