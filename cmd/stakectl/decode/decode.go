package decode

import (
	"os"

	"github.com/spf13/cobra"
	"go.firedancer.io/stake/cmd/stakectl/internal/stakefile"
	"go.firedancer.io/stake/pkg/sealevel"
	"k8s.io/klog/v2"
)

var Cmd = cobra.Command{
	Use:   "decode <file>...",
	Short: "Decode stake account data",
	Long:  "Decodes 200-byte stake account data, given raw or as base64/base58 text, and prints the stake state.",
	Args:  cobra.MinimumNArgs(1),
	Run:   run,
}

var flagPretty bool

func init() {
	Cmd.Flags().BoolVar(&flagPretty, "pretty", stakefile.IsTerminal(), "One field per line")
}

func run(_ *cobra.Command, args []string) {
	failed := false
	for _, path := range args {
		data, err := stakefile.Read(path)
		if err != nil {
			klog.Errorf("%s", err)
			failed = true
			continue
		}

		state, err := sealevel.UnmarshalStakeState(data)
		if err != nil {
			klog.Errorf("%s: %s", path, err)
			failed = true
			continue
		}

		stakefile.Print(os.Stdout, path, stakefile.Describe(state), flagPretty)
	}

	if failed {
		os.Exit(1)
	}
}
