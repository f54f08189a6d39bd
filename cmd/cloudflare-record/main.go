package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/yuriy-kovalchuk/cloudflare-record/internal/config"
	"github.com/yuriy-kovalchuk/cloudflare-record/internal/dns"
	_ "github.com/yuriy-kovalchuk/cloudflare-record/internal/dns/providers"
	"github.com/yuriy-kovalchuk/cloudflare-record/internal/metrics"
	"github.com/yuriy-kovalchuk/cloudflare-record/internal/output"
	"github.com/yuriy-kovalchuk/cloudflare-record/internal/reconcile"
)

var Version = "dev"

func main() {
	opts := zap.Options{}
	goFlags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	opts.BindFlags(goFlags)

	fs := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	fs.AddGoFlagSet(goFlags)
	flags := config.BindFlags(fs)
	format := fs.String("output", output.FormatJSON, "result format: json or table")
	metricsPath := fs.String("metrics-textfile", "", "write Prometheus metrics to this file when done")
	showVersion := fs.Bool("version", false, "print the version and exit")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] [ARGS_FILE]\n", os.Args[0])
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	if *showVersion {
		fmt.Println(Version)
		return
	}

	// stdout carries the result document, so logs go to stderr.
	ctrllog.SetLogger(zap.New(zap.UseFlagOptions(&opts), zap.WriteTo(os.Stderr)))
	log := ctrllog.Log.WithName("setup")

	out, err := output.NewWriter(os.Stdout, *format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	if err := metrics.InitMetrics(); err != nil {
		log.Error(err, "unable to register metrics")
	}

	res, err := run(context.Background(), flags, fs.Args())

	if *metricsPath != "" {
		if werr := metrics.WriteTextfile(*metricsPath); werr != nil {
			log.Error(werr, "unable to write metrics", "path", *metricsPath)
		}
	}

	if err != nil {
		log.Error(err, "reconciliation failed")
		if ferr := out.Failure(err.Error()); ferr != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", ferr)
		}
		os.Exit(1)
	}
	if err := out.Success(res); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// unknownState labels runs that failed before the desired state was known.
const unknownState = "unknown"

func run(ctx context.Context, flags *config.Flags, args []string) (res reconcile.Result, err error) {
	log := ctrllog.Log.WithName("setup")

	log.Info("starting cloudflare-record", "version", Version)

	var params config.Params
	defer func() {
		state := params.State
		if state == "" {
			state = unknownState
		}
		metrics.ObserveReconciliation(state, outcome(res, err))
	}()

	switch len(args) {
	case 0:
	case 1:
		p, err := config.LoadParamsFile(args[0])
		if err != nil {
			return reconcile.Result{}, fmt.Errorf("unable to load parameters: %w", err)
		}
		params = p
		log.Info("loaded args file", "path", args[0])
	default:
		return reconcile.Result{}, fmt.Errorf("expected at most one args file, got %d arguments", len(args))
	}
	flags.Apply(&params)
	params.ApplyDefaults(os.LookupEnv)

	if err := params.Validate(); err != nil {
		return reconcile.Result{}, err
	}
	log.V(1).Info("parameters", "params", params.String())

	provider, err := dns.NewProvider(params.Provider, ctrllog.Log.WithName("dns-"+params.Provider), params.ProviderSettings())
	if err != nil {
		return reconcile.Result{}, fmt.Errorf("unable to create DNS provider: %w", err)
	}

	reconciler, err := reconcile.New(provider, ctrllog.Log.WithName("reconcile"), reconcile.Options{
		Policy:    reconcile.Policy(params.Policy),
		CheckMode: params.CheckMode,
	})
	if err != nil {
		return reconcile.Result{}, err
	}

	return reconciler.Reconcile(ctx, reconcile.Desired{
		State:   params.State,
		Name:    params.Name,
		Zone:    params.Zone,
		Type:    params.Type,
		Content: params.Content,
	})
}

func outcome(res reconcile.Result, err error) string {
	var (
		providerErr   *dns.ProviderError
		transportErr  *dns.TransportError
		validationErr *dns.ValidationError
	)
	switch {
	case errors.As(err, &providerErr):
		return metrics.OutcomeProviderError
	case errors.As(err, &transportErr):
		return metrics.OutcomeTransportError
	case errors.As(err, &validationErr), isValidationAggregate(err):
		return metrics.OutcomeValidationError
	case err != nil:
		return metrics.OutcomeConfigError
	case res.Changed:
		return metrics.OutcomeChanged
	default:
		return metrics.OutcomeUnchanged
	}
}

// isValidationAggregate reports whether err is an aggregate made up only of
// validation errors. Aggregates do not support errors.As on their members.
func isValidationAggregate(err error) bool {
	var agg utilerrors.Aggregate
	if !errors.As(err, &agg) || len(agg.Errors()) == 0 {
		return false
	}
	for _, e := range agg.Errors() {
		var validationErr *dns.ValidationError
		if !errors.As(e, &validationErr) {
			return false
		}
	}
	return true
}
