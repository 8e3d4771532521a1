// Command onboardctl drives the onboarding wizard from a terminal. Drafts are
// kept in a local YAML file so an interrupted session can be resumed.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"aplite/internal/onboarding/backend"
	"aplite/internal/onboarding/drafts"
	"aplite/internal/onboarding/drafts/store"
	"aplite/internal/onboarding/synchronizer"
	"aplite/internal/onboarding/validator"
	"aplite/internal/onboarding/wizard"
	"aplite/internal/platform/logger"
	id "aplite/pkg/domain"
	"aplite/pkg/requestcontext"
)

var Version = "dev"

type options struct {
	apiURL    string
	token     string
	draftPath string
	namespace string
	output    string
	logLevel  string
}

// app is built once per invocation by the root command.
type app struct {
	ctrl *wizard.Controller
	ctx  context.Context
	out  io.Writer
	fmt  string
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "onboardctl",
		Short:         "Complete payment identity onboarding from the command line",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context(), opts)
		},
	}

	home, _ := os.UserHomeDir()
	flags := root.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api", envOr("ONBOARDING_API_URL", "http://localhost:8000"), "onboarding API base URL")
	flags.StringVar(&opts.token, "token", os.Getenv("APLITE_TOKEN"), "bearer token for the onboarding API")
	flags.StringVar(&opts.draftPath, "drafts", filepath.Join(home, ".aplite", "drafts.yaml"), "local draft file")
	flags.StringVar(&opts.namespace, "namespace", "", "draft namespace (defaults to one per draft file)")
	flags.StringVarP(&opts.output, "output", "o", "yaml", "output format: yaml or json")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level")

	root.AddCommand(
		stateCmd(a),
		draftCmd(a),
		uploadCmd(a),
		submitCmd(a),
		gotoCmd(a),
		verifyCmd(a),
		otpCmd(a),
		slotsCmd(a),
		scheduleCmd(a),
		resubmitCmd(a),
		resetCmd(a),
	)
	return root
}

func (a *app) init(ctx context.Context, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.token == "" {
		return fmt.Errorf("a bearer token is required (--token or APLITE_TOKEN)")
	}
	if opts.output != "yaml" && opts.output != "json" {
		return fmt.Errorf("unknown output format %q", opts.output)
	}
	ns, err := resolveNamespace(opts.namespace, opts.draftPath)
	if err != nil {
		return err
	}

	log := logger.NewWithWriter(os.Stderr, opts.logLevel, "text")
	client := backend.NewClient(opts.apiURL, backend.WithLogger(log))
	persister := store.NewFile(opts.draftPath)
	draftStore := drafts.NewStore(ns, persister, drafts.WithLogger(log), drafts.WithDevice("onboardctl"))
	draftStore.Restore(ctx)

	a.ctrl = wizard.New(draftStore,
		synchronizer.New(client, synchronizer.WithLogger(log)),
		validator.New(),
		wizard.WithLogger(log),
		wizard.WithFileReader(os.ReadFile),
	)
	a.ctx = requestcontext.WithBearerToken(ctx, opts.token)
	a.fmt = opts.output
	return a.ctrl.Ensure(a.ctx)
}

// resolveNamespace parses an explicit namespace or derives a stable one from
// the draft file path.
func resolveNamespace(raw, draftPath string) (id.Namespace, error) {
	if raw != "" {
		return id.ParseNamespace(raw)
	}
	abs, err := filepath.Abs(draftPath)
	if err != nil {
		return id.Namespace{}, fmt.Errorf("resolve draft path: %w", err)
	}
	return id.Namespace(uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+abs))), nil
}

func (a *app) print(v any) error {
	if a.fmt == "json" {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	// round-trip through JSON so the YAML keys match the API's field names
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	enc := yaml.NewEncoder(a.out)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(doc)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
