package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// CLIArgs are the command-line arguments of proctord. Empty values mean
// "keep the configured value".
type CLIArgs struct {
	ListenAddr  string
	StorageRoot string
	DetectorURL string
	ReplayPath  string
	ReplayLoop  bool
	EnvFiles    []string

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string

	loopSet bool
}

// Overrides points at the config fields flags may replace.
type Overrides struct {
	ListenAddr  *string
	StorageRoot *string
	DetectorURL *string
	ReplayPath  *string
	ReplayLoop  *bool
}

// ParseArgs parses a slice of args and returns CLIArgs. The function is
// deterministic and does not read os.Args.
func ParseArgs(args []string) (*CLIArgs, error) {
	fs := flag.NewFlagSet("proctord", flag.ContinueOnError)
	var (
		addr     = fs.String("addr", "", "HTTP listen address (e.g. :8080)")
		storage  = fs.String("storage", "", "Directory holding the report database")
		detURL   = fs.String("detector-url", "", "Base URL of the inference service")
		replay   = fs.String("replay", "", "Replay a JSON-lines capture instead of polling the inference service")
		loop     = fs.Bool("loop", false, "Loop the replay capture")
		envFiles = fs.String("env", "", "Comma-separated .env files to load")
	)

	// Ensure Parse doesn't write to stdout/stderr in tests
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	out := &CLIArgs{
		ListenAddr:  strings.TrimSpace(*addr),
		StorageRoot: strings.TrimSpace(*storage),
		DetectorURL: strings.TrimSpace(*detURL),
		ReplayPath:  strings.TrimSpace(*replay),
		ReplayLoop:  *loop,
		RawArgs:     args,
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "loop" {
			out.loopSet = true
		}
	})
	for _, f := range strings.Split(*envFiles, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out.EnvFiles = append(out.EnvFiles, f)
		}
	}
	return out, nil
}

// Apply writes every flag that was given into o.
func (a *CLIArgs) Apply(o *Overrides) {
	if a == nil || o == nil {
		return
	}
	set := func(dst *string, v string) {
		if dst != nil && v != "" {
			*dst = v
		}
	}
	set(o.ListenAddr, a.ListenAddr)
	set(o.StorageRoot, a.StorageRoot)
	set(o.DetectorURL, a.DetectorURL)
	set(o.ReplayPath, a.ReplayPath)
	if a.loopSet && o.ReplayLoop != nil {
		*o.ReplayLoop = a.ReplayLoop
	}
}
