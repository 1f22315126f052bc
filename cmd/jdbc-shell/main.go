package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"
	"golang.org/x/term"

	jdbcbridge "github.com/vexdb/jdbc-bridge"
	"github.com/vexdb/jdbc-bridge/bridge"
)

// shellConfig is the YAML config file shape. Flags override file values.
type shellConfig struct {
	Drivers          []string          `yaml:"drivers"`
	RuntimeArgs      []string          `yaml:"runtime_args"`
	MemoryLimitPages uint32            `yaml:"memory_limit_pages"`
	CacheDir         string            `yaml:"cache_dir"`
	Driver           string            `yaml:"driver"`
	URL              string            `yaml:"url"`
	Props            map[string]string `yaml:"props"`
}

func main() {
	var (
		configFile  = flag.String("config", "", "Path to YAML config file")
		drivers     = flag.String("drivers", "", "Driver .wasm artifacts (comma-separated)")
		driverID    = flag.String("driver", "", "Driver id to connect with")
		url         = flag.String("url", "", "Connection URL")
		user        = flag.String("user", "", "User name (password prompted on stdin)")
		execSQL     = flag.String("exec", "", "Statement to execute, then exit")
		list        = flag.Bool("list", false, "List loaded drivers and exit")
		interactive = flag.Bool("i", false, "Interactive shell")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *drivers != "" {
		cfg.Drivers = strings.Split(*drivers, ",")
	}
	if *driverID != "" {
		cfg.Driver = *driverID
	}
	if *url != "" {
		cfg.URL = *url
	}

	if len(cfg.Drivers) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: jdbc-shell -drivers <a.wasm,b.wasm> -driver <id> -url <jdbc-url> -exec <sql>")
		fmt.Fprintln(os.Stderr, "       jdbc-shell -config shell.yaml -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       jdbc-shell -drivers <a.wasm> -list")
		os.Exit(1)
	}

	if err := run(cfg, *user, *execSQL, *list, *interactive, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (shellConfig, error) {
	var cfg shellConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func run(cfg shellConfig, user, execSQL string, list, interactive, verbose bool) error {
	ctx := context.Background()

	log := zap.NewNop()
	if verbose {
		var err error
		if log, err = zap.NewDevelopment(); err != nil {
			return err
		}
	}

	err := jdbcbridge.Start(ctx, jdbcbridge.Config{
		ClasspathEntries: cfg.Drivers,
		RuntimeArgs:      cfg.RuntimeArgs,
		MemoryLimitPages: cfg.MemoryLimitPages,
		CacheDir:         cfg.CacheDir,
		Logger:           log,
	})
	if err != nil {
		return err
	}
	defer func() { _ = jdbcbridge.Shutdown(ctx) }()

	if list {
		infos, err := jdbcbridge.Drivers()
		if err != nil {
			return err
		}
		fmt.Printf("Loaded drivers:\n")
		for _, info := range infos {
			fmt.Printf("  %-12s %s (%s)\n", info.ID, info.Class, info.Version)
		}
		return nil
	}

	props := make(map[string]string, len(cfg.Props)+2)
	for k, v := range cfg.Props {
		props[k] = v
	}
	if user != "" {
		props["user"] = user
		if _, ok := props["password"]; !ok {
			fmt.Fprintf(os.Stderr, "Password for %s: ", user)
			pw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			props["password"] = string(pw)
		}
	}

	if interactive {
		return runInteractive(cfg.Driver, cfg.URL, props, log)
	}
	if execSQL == "" {
		return fmt.Errorf("nothing to do; pass -exec, -list or -i")
	}

	conn, err := jdbcbridge.Connect(ctx, cfg.Driver, cfg.URL, props, bridge.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close(ctx) }()

	cur := conn.Cursor()
	defer func() { _ = cur.Close(ctx) }()

	if err := cur.Execute(ctx, execSQL); err != nil {
		return err
	}
	if desc := cur.Description(); desc != nil {
		rows, err := cur.FetchAll(ctx)
		if err != nil {
			return err
		}
		fmt.Print(renderResult(desc, rows))
		fmt.Printf("(%d rows)\n", len(rows))
		return nil
	}
	fmt.Printf("%d rows affected\n", cur.RowCount())
	return nil
}
