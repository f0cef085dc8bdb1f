// Copyright 2026 The SpellBroker Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the spell-checking broker server.

SpellBroker routes spell-check, suggestion and personal-word-list requests
through a single broker API to pluggable spelling providers. It runs as a
MessagePack IPC server over stdin/stdout for integration with editors and
other tools.

# Usage

Start the server with default settings:

	spellbroker

Use a custom dictionary directory and enable debug mode:

	spellbroker -dicts /path/to/dicts -d

The dictionary directory holds one plain word list per language, named by
tag: en.txt, en_US.txt, de.txt. Each file is one word per line.

# Configuration

Runtime configuration is a TOML file, created with defaults on first run:

	[broker]
	user_config_dir = ""
	system_config_dir = "/usr/share/spellbroker"
	dict_dir = ""

	[suggest]
	max_suggestions = 15

	[server]
	max_word_len = 128

The user config directory also holds the per-language personal (<tag>.dic)
and exclude (<tag>.exc) word lists and the spellbroker.ordering file that
sets provider preference per language tag. SPELLBROKER_CONFIG_DIR overrides
the directory discovery.

# IPC Protocol

Requests are msgpack maps over stdin, answered in order over stdout:

	{"id": "req1", "op": "check", "tag": "en_US", "w": "helo"}
	{"id": "req1", "ok": false, "t": 0}

	{"id": "req2", "op": "suggest", "tag": "en_US", "w": "helo"}
	{"id": "req2", "s": ["hello", "help"], "c": 2, "t": 1}

Word-list management uses the add, remove, add_session and remove_session
ops; dict_exists and list_dicts query the broker. See pkg/server for the
full message reference.
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/spellbroker/spellbroker/pkg/broker"
	"github.com/spellbroker/spellbroker/pkg/config"
	"github.com/spellbroker/spellbroker/pkg/server"
	"github.com/spellbroker/spellbroker/providers/wordlist"
)

const (
	Version = "0.1.0"
	AppName = "spellbroker"
	gh      = "https://github.com/spellbroker/spellbroker"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main wires config, providers, broker and server together; the logic
// lives in the packages.
func main() {
	sigHandler()

	showVersion := flag.Bool("version", false, "Show current version")
	configPath := flag.String("config", "", "Path to a config.toml (default: discovered)")
	dictDir := flag.String("dicts", "", "Directory containing <tag>.txt word lists")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	cfg, cfgPath, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfgPath != "" {
		log.Debugf("Using config at: %s", cfgPath)
	}
	if *dictDir != "" {
		cfg.Broker.DictDir = *dictDir
	}
	if cfg.Broker.DictDir == "" {
		if confDir, err := config.GetConfigDir(); err == nil {
			cfg.Broker.DictDir = filepath.Join(confDir, "dicts")
		}
	}

	wordlist.Register(cfg.Broker.DictDir)
	b := broker.New(cfg)
	defer b.Close()

	b.Describe(func(name, desc string) {
		log.Debugf("Loaded provider %s: %s", name, desc)
	})

	srv := server.NewServer(b, cfg)
	if err := srv.Start(); err != nil {
		log.Fatalf("Server terminated: %v", err)
	}
}

func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ SpellBroker ] One API for every spelling engine.")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}
