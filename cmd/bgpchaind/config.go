// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	flags "github.com/jessevdk/go-flags"
	"github.com/toole-brendan/bgpchain/chaincfg"
)

// config holds every flag bgpchaind accepts, in the teacher's
// flag-struct-with-tags style.
type config struct {
	IP                string `short:"i" long:"ip" description:"Address to bind and advertise to peers"`
	Port              int    `short:"p" long:"port" description:"Port to listen on"`
	ASN               string `short:"a" long:"asn" description:"This node's own autonomous system number" required:"true"`
	DataDir           string `long:"datadir" description:"Directory for the on-disk block store"`
	LogDir            string `long:"logdir" description:"Directory for rotated log files"`
	BootstrapPeers    string `long:"bootstrap-peers" description:"CSV file of seed peers (ip,port,asn)"`
	BootstrapHoldings string `long:"bootstrap-holdings" description:"JSON file of genesis AS->prefixes holdings"`
	Debug             string `long:"debuglevel" description:"Logging level: trace, debug, info, warn, error, critical" default:"info"`
}

// defaultConfig returns a config pre-filled with the network defaults of
// chaincfg, before flag parsing overrides them.
func defaultConfig() config {
	return config{
		IP:      chaincfg.DefaultIP,
		Port:    chaincfg.DefaultPort,
		DataDir: defaultDataDir(),
		LogDir:  defaultLogDir(),
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./bgpchaind-data"
	}
	return filepath.Join(home, ".bgpchaind", "data")
}

func defaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./bgpchaind-logs"
	}
	return filepath.Join(home, ".bgpchaind", "logs")
}

// loadConfig parses os.Args into a config, seeded with network defaults.
func loadConfig() (*config, error) {
	cfg := defaultConfig()
	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.ASN == "" {
		return nil, fmt.Errorf("config: --asn is required")
	}
	return &cfg, nil
}
