package activation

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"
	"go.firedancer.io/stake/cmd/stakectl/internal/stakefile"
	"go.firedancer.io/stake/pkg/config"
	"go.firedancer.io/stake/pkg/sealevel"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

var Cmd = cobra.Command{
	Use:   "activation <file>...",
	Short: "Compute effective, activating and deactivating stake",
	Args:  cobra.MinimumNArgs(1),
	Run:   run,
}

var (
	flagConfig  string
	flagEpoch   int64
	flagWorkers int
	flagPretty  bool
)

func init() {
	Cmd.Flags().StringVar(&flagConfig, "config", "", "Cluster config YAML (clock, rent, stake history, features)")
	Cmd.Flags().Int64Var(&flagEpoch, "epoch", -1, "Target epoch (default: the configured clock epoch)")
	Cmd.Flags().IntVar(&flagWorkers, "workers", runtime.NumCPU(), "Accounts evaluated concurrently")
	Cmd.Flags().BoolVar(&flagPretty, "pretty", stakefile.IsTerminal(), "One field per line")
}

type Result struct {
	Path      string
	Delegated uint64
	Status    sealevel.StakeHistoryEntry
}

// Evaluate computes the activation status of every stake account file at
// epoch. Results keep the order of paths. Files that are not delegated
// report a zero status.
func Evaluate(ctx context.Context, paths []string, epoch uint64, history sealevel.StakeHistoryLookup, rateEpoch *uint64, workers int) ([]Result, error) {
	results := make([]Result, len(paths))

	group, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		group.SetLimit(workers)
	}

	for idx, path := range paths {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			data, err := stakefile.Read(path)
			if err != nil {
				return err
			}
			state, err := sealevel.UnmarshalStakeState(data)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			results[idx].Path = path
			if state.Status != sealevel.StakeStateV2StatusStake {
				return nil
			}
			delegation := state.Stake.Stake.Delegation
			results[idx].Delegated = delegation.Stake
			results[idx].Status = delegation.StakeActivatingAndDeactivating(epoch, history, rateEpoch)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func run(c *cobra.Command, args []string) {
	cfg := new(config.Config)
	if flagConfig != "" {
		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			klog.Exitf("failed to load config: %s", err)
		}
	}

	execCtx, err := cfg.ExecutionCtx(nil)
	if err != nil {
		klog.Exitf("invalid config: %s", err)
	}
	clock, err := execCtx.SysvarCache.GetClock()
	if err != nil {
		klog.Exitf("%s", err)
	}
	history, err := execCtx.SysvarCache.GetStakeHistory()
	if err != nil {
		klog.Exitf("%s", err)
	}

	epoch := clock.Epoch
	if flagEpoch >= 0 {
		epoch = uint64(flagEpoch)
	}
	klog.V(2).Infof("evaluating %d accounts at epoch %d against %d history entries", len(args), epoch, history.Len())

	results, err := Evaluate(c.Context(), args, epoch, history, execCtx.WarmupCooldownRateEpoch(), flagWorkers)
	if err != nil {
		klog.Exitf("%s", err)
	}

	var total Result
	for _, res := range results {
		total.Delegated += res.Delegated
		total.Status = total.Status.Add(res.Status)
		stakefile.Print(os.Stdout, res.Path, statusFields(epoch, res), flagPretty)
	}
	if len(results) > 1 {
		total.Path = "total"
		stakefile.Print(os.Stdout, total.Path, statusFields(epoch, total), flagPretty)
	}
}

func statusFields(epoch uint64, res Result) []stakefile.Field {
	return []stakefile.Field{
		{Name: "epoch", Value: strconv.FormatUint(epoch, 10)},
		{Name: "delegated", Value: strconv.FormatUint(res.Delegated, 10)},
		{Name: "effective", Value: strconv.FormatUint(res.Status.Effective, 10)},
		{Name: "activating", Value: strconv.FormatUint(res.Status.Activating, 10)},
		{Name: "deactivating", Value: strconv.FormatUint(res.Status.Deactivating, 10)},
	}
}
