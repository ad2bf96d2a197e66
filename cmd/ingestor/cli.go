package main

import "flag"

// cliFlags mirrors the flag surface in §6: a mode selector, a config file
// path, and sync-check's flat override flags.
type cliFlags struct {
	mode string
	cfg  string
	env  string

	// sync-check overrides
	localURL  string
	remoteURL string
	mapping   string
	checkDays int
	lagHours  int
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.mode, "mode", "", "block_parser|transaction_subscriber|local|remote|sync-check")
	flag.StringVar(&f.cfg, "config", "", "path to the mode's TOML config file")
	flag.StringVar(&f.env, "env", ".env", "path to a .env file to load before config parsing")

	flag.StringVar(&f.localURL, "local-url", "", "sync-check: override local store URL")
	flag.StringVar(&f.remoteURL, "remote-url", "", "sync-check: override remote store URL")
	flag.StringVar(&f.mapping, "map", "", "sync-check: local:remote table mapping, repeatable via comma")
	flag.IntVar(&f.checkDays, "check-days", 0, "sync-check: override check_days")
	flag.IntVar(&f.lagHours, "lag-hours", 0, "sync-check: override lag_hours")

	flag.Parse()
	return f
}
