// Copyright 2025 The pinyinime Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main runs the pinyin IME engine as a MessagePack IPC server or as an
interactive CLI.

The engine converts pinyin to Chinese with an AI text-generation backend and
lets the user fix mistranscribed syllables from a local dictionary. Confirmed
fixes are merged back into the AI result by the same backend. Without a
backend configured only dictionary matching is available.

# Usage

Start the server with the dictionary next to the binary:

	pinyinime

Use a specific dictionary and enable debug logging:

	pinyinime -dict /path/to/dict.json -d

Run the interactive CLI:

	pinyinime -c

Convert a JSON dictionary to the faster msgpack format:

	pinyinime -dict dict.json -convert dict.msgpack

# Configuration

A config.toml is created with defaults on first run:

	[generation]
	endpoint = "https://<resource>.openai.azure.com"
	api_key = ""
	api_version = "2024-10-21"
	deployment = "gpt-4o-mini"

	[ime]
	debounce_ms = 1000
	cache_size = 256

	[dict]
	path = "data/dict.json"
	format = "auto"

Leave api_version empty to talk to an OpenAI-compatible endpoint, which then
uses the model key. AZURE_OPENAI_API_KEY, AZURE_OPENAI_ENDPOINT,
AZURE_OPENAI_API_VERSION, AZURE_OPENAI_DEPLOYMENT_NAME and PINYINIME_MODEL
override the file.

# Command Line Flags

	-dict string
	    Dictionary file (default from config)
	-format string
	    Dictionary format: auto, json, msgpack, text
	-config string
	    Config file path
	-convert string
	    Write the loaded dictionary as msgpack to this path and exit
	-debounce int
	    Conversion debounce in ms (default from config)
	-d  Enable debug mode with detailed logging
	-c  Run in CLI mode instead of server mode
	-rebuild-config
	    Write a fresh default config file and exit
	-version
	    Show current version

The IPC protocol is described in package server.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YanaYuan/chinese-pinyin-ime/internal/cli"
	"github.com/YanaYuan/chinese-pinyin-ime/internal/utils"
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/candidate"
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/config"
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/dictionary"
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/generate"
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/generate/openai"
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/ime"
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/server"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

const (
	Version = "0.3.0"
	AppName = "pinyinime"
	gh      = "https://github.com/YanaYuan/chinese-pinyin-ime"
)

// main only manages the flow; the engine, server and CLI live in their packages.
func main() {
	showVersion := flag.Bool("version", false, "Show current version")
	dictPath := flag.String("dict", "", "Dictionary file (default from config)")
	dictFormat := flag.String("format", "", "Dictionary format: auto, json, msgpack, text")
	configPath := flag.String("config", "", "Config file path")
	convertOut := flag.String("convert", "", "Write the loaded dictionary as msgpack to this path and exit")
	debounceMs := flag.Int("debounce", 0, "Conversion debounce in ms (default from config)")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	rebuildConfig := flag.Bool("rebuild-config", false, "Write a fresh default config file and exit")

	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	if *rebuildConfig {
		path, err := config.RebuildConfigFile()
		if err != nil {
			log.Fatalf("Failed to rebuild config: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote default config to %s\n", path)
		return
	}

	cfg, usedConfig, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(usedConfig))

	if *dictPath != "" {
		cfg.Dict.Path = *dictPath
	}
	if *dictFormat != "" {
		cfg.Dict.Format = *dictFormat
	}
	if *debounceMs > 0 {
		cfg.IME.DebounceMs = *debounceMs
	}

	store, resolvedDict := loadDictionary(cfg.Dict)

	if *convertOut != "" {
		if err := writeMsgpack(store, *convertOut); err != nil {
			log.Fatalf("Failed to convert dictionary: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %d entries to %s\n", store.Len(), *convertOut)
		return
	}

	gen, configured := newGenerator(cfg.Generation)
	matcher := candidate.NewMatcher(store, candidate.WithCacheSize(cfg.IME.CacheSize))
	engine := ime.New(matcher, gen, ime.Config{
		Debounce:        cfg.IME.Debounce(),
		GenerateTimeout: cfg.Generation.Timeout(),
	})
	defer engine.Close()

	if *cliMode {
		log.SetReportTimestamp(false)
		handler := cli.NewInputHandler(engine, cli.Options{
			ShowPinyin:    cfg.CLI.ShowPinyin,
			ShowFrequency: cfg.CLI.ShowFrequency,
		}, os.Stdout)
		if err := handler.Start(os.Stdin); err != nil {
			log.Errorf("CLI error: %v", err)
		}
		return
	}

	showStartupInfo(resolvedDict, store, configured)
	if err := serve(engine, matcher, server.Options{Entries: store.Len(), Generation: configured}); err != nil {
		log.Errorf("Server error: %v", err)
		engine.Close()
		os.Exit(1)
	}
}

// serve runs the IPC loop until stdin closes or a signal arrives.
func serve(engine *ime.Engine, matcher *candidate.Matcher, opts server.Options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	srv := server.NewServer(engine, matcher, opts)
	g.Go(func() error {
		defer stop()
		return srv.Serve(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		// Unblocks the decoder when shutdown came from a signal.
		_ = os.Stdin.Close()
		return nil
	})
	return g.Wait()
}

// loadDictionary resolves and loads the dictionary. Any failure degrades
// to an empty store so the engine still runs.
func loadDictionary(dict config.DictConfig) (*dictionary.Store, string) {
	format, err := dictionary.ParseFormat(dict.Format)
	if err != nil {
		log.Warnf("%v, detecting from file name", err)
	} else if info, ok := dictionary.GetFormatInfo(format); ok {
		log.Debugf("Dictionary format: %s", info.Description)
	}

	path := dict.Path
	if pr, err := utils.NewPathResolver(); err == nil {
		path = pr.GetDictPath(dict.Path)
	} else {
		log.Warnf("Failed to initialize path resolver: %v", err)
	}
	log.Debugf("Using dictionary at: %s", path)

	start := time.Now()
	res := <-dictionary.LoadFileAsync(path, format)
	if res.Err != nil {
		var loadErr *dictionary.LoadError
		if errors.As(res.Err, &loadErr) {
			log.Warnf("Dictionary unavailable (%v), candidates disabled", loadErr)
		} else {
			log.Warnf("Dictionary unavailable: %v", res.Err)
		}
		return dictionary.Empty(), path
	}
	st := res.Store.Stats()
	log.Debugf("Loaded %d entries (%d multi-syllable) in %v", st.Entries, st.MultiSyll, time.Since(start))
	return res.Store, path
}

func writeMsgpack(store *dictionary.Store, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := dictionary.WriteMsgpack(f, store.Entries()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// newGenerator builds the generation backend, or generate.Unconfigured when
// the config is incomplete.
func newGenerator(cfg config.GenerationConfig) (generate.Generator, bool) {
	if err := cfg.Validate(); err != nil {
		log.Warnf("%v: AI conversion disabled, dictionary correction still works", err)
		return generate.Unconfigured{}, false
	}

	opts := []openai.Option{
		openai.WithTimeout(cfg.Timeout()),
		openai.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.Azure() {
		opts = append(opts, openai.WithAzure(cfg.Endpoint, cfg.APIVersion))
	} else if cfg.Endpoint != "" {
		opts = append(opts, openai.WithBaseURL(cfg.Endpoint))
	}

	p, err := openai.New(cfg.APIKey, cfg.ModelName(), opts...)
	if err != nil {
		log.Warnf("Failed to create generation client: %v", err)
		return generate.Unconfigured{}, false
	}
	log.Debugf("Generation backend: model=%s azure=%v", cfg.ModelName(), cfg.Azure())
	return p, true
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
	logger.Print("[ pinyinime ] AI pinyin input with dictionary correction")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(dictPath string, store *dictionary.Store, generation bool) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	println("===========")
	println(" pinyinime ")
	println("===========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("dictionary: ( %s ), %d entries", dictPath, store.Len())
	if generation {
		log.Info("generation: configured")
	} else {
		log.Warn("generation: not configured")
	}
	log.Info("status: ready")
	println("===========")

	log.SetLevel(currentLevel)
}
