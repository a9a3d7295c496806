package exec

import (
	"encoding/base64"
	"os"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.firedancer.io/stake/cmd/stakectl/internal/stakefile"
	"go.firedancer.io/stake/pkg/accounts"
	"go.firedancer.io/stake/pkg/config"
	"go.firedancer.io/stake/pkg/sealevel"
	"k8s.io/klog/v2"
)

var Cmd = cobra.Command{
	Use:   "exec",
	Short: "Execute one stake program instruction from a scenario file",
	Args:  cobra.NoArgs,
	Run:   run,
}

var (
	flagConfig   string
	flagScenario string
	flagPretty   bool
)

func init() {
	Cmd.Flags().StringVar(&flagConfig, "config", "", "Cluster config YAML (clock, rent, stake history, features)")
	Cmd.Flags().StringVar(&flagScenario, "scenario", "", "Scenario YAML (instruction, accounts)")
	Cmd.Flags().BoolVar(&flagPretty, "pretty", stakefile.IsTerminal(), "One field per line")
	_ = Cmd.MarkFlagRequired("scenario")
}

// Outcome is the result of running a scenario.
type Outcome struct {
	Err        error
	Accounts   []*accounts.Account
	ReturnData []byte
}

func sysvarAccount(key solana.PublicKey, data []byte) *accounts.Account {
	return &accounts.Account{Key: key, Lamports: 1, Data: data, Owner: sealevel.SysvarOwnerAddr}
}

// seed stores the program account, the sysvar accounts and the scenario's
// accounts in db and returns their keys in transaction order.
func seed(db accounts.Accounts, cfg *config.Config, sc *Scenario) ([]solana.PublicKey, error) {
	clock := cfg.SysvarClock()
	clockData, err := clock.Marshal()
	if err != nil {
		return nil, err
	}
	rent := cfg.SysvarRent()
	rentData, err := rent.Marshal()
	if err != nil {
		return nil, err
	}
	history := cfg.SysvarStakeHistory()
	historyData, err := history.Marshal()
	if err != nil {
		return nil, err
	}

	builtins := []*accounts.Account{
		{Key: sealevel.StakeProgramAddr, Lamports: 1, Owner: sealevel.NativeLoaderAddr, Executable: true},
		sysvarAccount(sealevel.SysvarClockAddr, clockData),
		sysvarAccount(sealevel.SysvarRentAddr, rentData),
		sysvarAccount(sealevel.SysvarStakeHistoryAddr, historyData),
	}

	var keys []solana.PublicKey
	seen := make(map[solana.PublicKey]bool)
	store := func(acct *accounts.Account) error {
		err := db.SetAccount((*[32]byte)(&acct.Key), acct)
		if err != nil {
			return err
		}
		if !seen[acct.Key] {
			seen[acct.Key] = true
			keys = append(keys, acct.Key)
		}
		return nil
	}

	for _, acct := range builtins {
		if err = store(acct); err != nil {
			return nil, err
		}
	}
	for idx := range sc.Accounts {
		acct, err := sc.Accounts[idx].Account()
		if err != nil {
			return nil, err
		}
		if err = store(acct); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// Run executes the scenario's instruction against db. Accounts the
// instruction modified are written back to db only when it succeeds.
func Run(db accounts.Accounts, cfg *config.Config, sc *Scenario) (*Outcome, error) {
	data, err := sc.InstructionData()
	if err != nil {
		return nil, err
	}

	var metas []sealevel.AccountMeta
	for _, fields := range sc.InstructionAccounts {
		key, err := parseKey(fields.Pubkey)
		if err != nil {
			return nil, err
		}
		metas = append(metas, sealevel.NewAccountMeta(key, fields.Signer, fields.Writable))
	}

	keys, err := seed(db, cfg, sc)
	if err != nil {
		return nil, err
	}

	txAccts := make([]accounts.Account, 0, len(keys))
	for idx := range keys {
		acct, err := db.GetAccount((*[32]byte)(&keys[idx]))
		if err != nil {
			return nil, err
		}
		txAccts = append(txAccts, *acct)
	}

	txCtx := sealevel.NewTransactionCtx(sealevel.NewTransactionAccounts(txAccts))
	execCtx, err := cfg.ExecutionCtx(txCtx)
	if err != nil {
		return nil, err
	}

	instr := sealevel.Instruction{ProgramId: sealevel.StakeProgramAddr, Data: data, Accounts: metas}
	outcome := &Outcome{Err: execCtx.Invoke(instr)}

	if outcome.Err == nil {
		for _, acct := range txCtx.Accounts.TouchedAccounts() {
			if err = db.SetAccount((*[32]byte)(&acct.Key), acct); err != nil {
				return nil, err
			}
		}
		_, outcome.ReturnData = txCtx.ReturnData()
	}

	for idx := range sc.Accounts {
		key, _ := parseKey(sc.Accounts[idx].Pubkey)
		acct, err := db.GetAccount((*[32]byte)(&key))
		if err != nil {
			return nil, err
		}
		outcome.Accounts = append(outcome.Accounts, acct)
	}
	return outcome, nil
}

func resultFields(outcome *Outcome) []stakefile.Field {
	if outcome.Err == nil {
		fields := []stakefile.Field{{Name: "result", Value: "ok"}}
		if len(outcome.ReturnData) != 0 {
			fields = append(fields, stakefile.Field{Name: "return_data", Value: base64.StdEncoding.EncodeToString(outcome.ReturnData)})
		}
		return fields
	}

	fields := []stakefile.Field{
		{Name: "result", Value: outcome.Err.Error()},
		{Name: "code", Value: strconv.Itoa(sealevel.TranslateErrToInstrErrCode(outcome.Err))},
	}
	if code, ok := sealevel.StakeErrCode(outcome.Err); ok {
		fields = append(fields, stakefile.Field{Name: "custom", Value: strconv.FormatUint(uint64(code), 10)})
	}
	return fields
}

func accountFields(acct *accounts.Account) []stakefile.Field {
	fields := []stakefile.Field{
		{Name: "lamports", Value: strconv.FormatUint(acct.Lamports, 10)},
		{Name: "owner", Value: acct.Owner.String()},
	}
	if acct.Owner != sealevel.StakeProgramAddr {
		return fields
	}
	state, err := sealevel.UnmarshalStakeState(acct.Data)
	if err != nil {
		return append(fields, stakefile.Field{Name: "state", Value: err.Error()})
	}
	return append(fields, stakefile.Describe(state)...)
}

func run(c *cobra.Command, _ []string) {
	cfg := new(config.Config)
	if flagConfig != "" {
		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			klog.Exitf("failed to load config: %s", err)
		}
	}

	sc, err := LoadScenario(flagScenario)
	if err != nil {
		klog.Exitf("failed to load scenario: %s", err)
	}

	outcome, err := Run(accounts.NewMemAccounts(), cfg, sc)
	if err != nil {
		klog.Exitf("%s", err)
	}

	stakefile.Print(os.Stdout, flagScenario, resultFields(outcome), flagPretty)
	for _, acct := range outcome.Accounts {
		stakefile.Print(os.Stdout, acct.Key.String(), accountFields(acct), flagPretty)
	}
	if outcome.Err != nil {
		os.Exit(1)
	}
}
