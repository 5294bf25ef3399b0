// Command minipgsh is an interactive shell that embeds the engine in-process.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/kartikbazzad/minipg/internal/config"
	"github.com/kartikbazzad/minipg/internal/engine"
	"github.com/kartikbazzad/minipg/internal/logger"
)

const historyFile = ".minipg_history"

func main() {
	cfg := config.DefaultConfig()
	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "root directory for catalog, sequence, stats, and table files")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logging")
	flag.Parse()

	var log = logger.NewNop()
	if cfg.Debug {
		var err error
		if log, err = logger.New(true); err != nil {
			fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
			os.Exit(1)
		}
	}

	eng, err := engine.Open(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open engine: %v\n", err)
		os.Exit(1)
	}
	defer eng.Close()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	histPath := historyPath()
	if f, err := os.Open(histPath); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer saveHistory(line, histPath)

	fmt.Println("minipg shell. \\q to quit.")
	for {
		input, err := line.Prompt("minipg> ")
		if err != nil {
			// Ctrl-C and EOF both end the session.
			fmt.Println()
			return
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if input == "\\q" || strings.EqualFold(input, "exit") {
			return
		}
		line.AppendHistory(input)

		status, rows := eng.RunQuery(input)
		for _, row := range rows {
			if b, err := json.Marshal(row); err == nil {
				fmt.Println(string(b))
			}
		}
		fmt.Println(status)
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return historyFile
	}
	return filepath.Join(home, historyFile)
}

func saveHistory(line *liner.State, path string) {
	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}
