package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.firedancer.io/stake/cmd/stakectl/activation"
	"go.firedancer.io/stake/cmd/stakectl/decode"
	"go.firedancer.io/stake/cmd/stakectl/exec"
	"k8s.io/klog/v2"
)

var cmd = cobra.Command{
	Use:              "stakectl",
	Short:            "Stake account inspection and execution tool",
	PersistentPreRun: serveMetrics,
}

var flagMetricsAddr string

func init() {
	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)
	cmd.PersistentFlags().AddGoFlagSet(klogFlags)
	cmd.PersistentFlags().StringVar(&flagMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	cmd.AddCommand(
		&activation.Cmd,
		&decode.Cmd,
		&exec.Cmd,
	)
}

func serveMetrics(c *cobra.Command, _ []string) {
	if flagMetricsAddr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: flagMetricsAddr, Handler: mux}

	go func() {
		<-c.Context().Done()
		_ = server.Close()
	}()
	go func() {
		klog.Infof("serving metrics on %s", flagMetricsAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			klog.Errorf("metrics server: %s", err)
		}
	}()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	cobra.CheckErr(cmd.ExecuteContext(ctx))
}
