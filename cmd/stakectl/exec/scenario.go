package exec

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/stake/pkg/accounts"
	"go.firedancer.io/stake/pkg/sealevel"
	"gopkg.in/yaml.v3"
)

// Scenario describes one stake program instruction and the accounts it
// runs against.
type Scenario struct {
	Instruction string `yaml:"instruction"`

	Lamports     uint64       `yaml:"lamports"`
	NewAuthority string       `yaml:"new_authority"`
	Role         string       `yaml:"role"`
	Seed         string       `yaml:"seed"`
	SeedOwner    string       `yaml:"seed_owner"`
	Staker       string       `yaml:"staker"`
	Withdrawer   string       `yaml:"withdrawer"`
	Lockup       LockupFields `yaml:"lockup"`

	// Data overrides the encoded instruction data when set (base64).
	Data string `yaml:"data"`

	Accounts            []AccountFields     `yaml:"accounts"`
	InstructionAccounts []InstructionFields `yaml:"instruction_accounts"`
}

type LockupFields struct {
	UnixTimestamp *int64  `yaml:"unix_timestamp"`
	Epoch         *uint64 `yaml:"epoch"`
	Custodian     string  `yaml:"custodian"`
}

type AccountFields struct {
	Pubkey     string `yaml:"pubkey"`
	Lamports   uint64 `yaml:"lamports"`
	Owner      string `yaml:"owner"`
	Data       string `yaml:"data"`
	DataLen    int    `yaml:"data_len"`
	Executable bool   `yaml:"executable"`
}

type InstructionFields struct {
	Pubkey   string `yaml:"pubkey"`
	Signer   bool   `yaml:"signer"`
	Writable bool   `yaml:"writable"`
}

var keyAliases = map[string]solana.PublicKey{
	"stake_program":  sealevel.StakeProgramAddr,
	"system_program": sealevel.SystemProgramAddr,
	"clock":          sealevel.SysvarClockAddr,
	"rent":           sealevel.SysvarRentAddr,
	"stake_history":  sealevel.SysvarStakeHistoryAddr,
}

func parseKey(s string) (solana.PublicKey, error) {
	if key, ok := keyAliases[s]; ok {
		return key, nil
	}
	key, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid pubkey %q: %w", s, err)
	}
	return key, nil
}

func parseOptionalKey(s string) (*solana.PublicKey, error) {
	if s == "" {
		return nil, nil
	}
	key, err := parseKey(s)
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func parseRole(s string) (uint32, error) {
	switch strings.ToLower(s) {
	case "staker":
		return sealevel.StakeAuthorizeStaker, nil
	case "withdrawer":
		return sealevel.StakeAuthorizeWithdrawer, nil
	default:
		return 0, fmt.Errorf("invalid role %q, want staker or withdrawer", s)
	}
}

func instrTypeByName(name string) (uint32, error) {
	for instrType := uint32(sealevel.StakeProgramInstrTypeInitialize); instrType <= sealevel.StakeProgramInstrTypeMoveLamports; instrType++ {
		if strings.EqualFold(sealevel.StakeInstrName(instrType), name) {
			return instrType, nil
		}
	}
	return 0, fmt.Errorf("unknown stake instruction %q", name)
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	sc := new(Scenario)
	err := yaml.Unmarshal(data, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode scenario: %w", err)
	}
	if sc.Instruction == "" && sc.Data == "" {
		return nil, fmt.Errorf("scenario names no instruction")
	}
	return sc, nil
}

func (sc *Scenario) lockupArgs() (sealevel.LockupArgs, error) {
	custodian, err := parseOptionalKey(sc.Lockup.Custodian)
	if err != nil {
		return sealevel.LockupArgs{}, err
	}
	return sealevel.LockupArgs{UnixTimestamp: sc.Lockup.UnixTimestamp, Epoch: sc.Lockup.Epoch, Custodian: custodian}, nil
}

// InstructionData encodes the scenario's instruction.
func (sc *Scenario) InstructionData() ([]byte, error) {
	if sc.Data != "" {
		return base64.StdEncoding.DecodeString(sc.Data)
	}

	instrType, err := instrTypeByName(sc.Instruction)
	if err != nil {
		return nil, err
	}

	var instr bin.BinaryMarshaler
	switch instrType {
	case sealevel.StakeProgramInstrTypeInitialize:
		staker, err := parseKey(sc.Staker)
		if err != nil {
			return nil, err
		}
		withdrawer, err := parseKey(sc.Withdrawer)
		if err != nil {
			return nil, err
		}
		lockup := sealevel.StakeLockup{}
		if sc.Lockup.UnixTimestamp != nil {
			lockup.UnixTimestamp = *sc.Lockup.UnixTimestamp
		}
		if sc.Lockup.Epoch != nil {
			lockup.Epoch = *sc.Lockup.Epoch
		}
		if sc.Lockup.Custodian != "" {
			lockup.Custodian, err = parseKey(sc.Lockup.Custodian)
			if err != nil {
				return nil, err
			}
		}
		instr = &sealevel.StakeInstrInitialize{
			Authorized: sealevel.Authorized{Staker: staker, Withdrawer: withdrawer},
			Lockup:     lockup,
		}

	case sealevel.StakeProgramInstrTypeAuthorize, sealevel.StakeProgramInstrTypeAuthorizeWithSeed:
		newAuthority, err := parseKey(sc.NewAuthority)
		if err != nil {
			return nil, err
		}
		role, err := parseRole(sc.Role)
		if err != nil {
			return nil, err
		}
		if instrType == sealevel.StakeProgramInstrTypeAuthorize {
			instr = &sealevel.StakeInstrAuthorize{Pubkey: newAuthority, StakeAuthorize: role}
			break
		}
		owner, err := parseKey(sc.SeedOwner)
		if err != nil {
			return nil, err
		}
		instr = &sealevel.StakeInstrAuthorizeWithSeed{NewAuthorizedPubkey: newAuthority, StakeAuthorize: role,
			AuthoritySeed: sc.Seed, AuthorityOwner: owner}

	case sealevel.StakeProgramInstrTypeAuthorizeChecked:
		role, err := parseRole(sc.Role)
		if err != nil {
			return nil, err
		}
		instr = &sealevel.StakeInstrAuthorizeChecked{StakeAuthorize: role}

	case sealevel.StakeProgramInstrTypeAuthorizeCheckedWithSeed:
		role, err := parseRole(sc.Role)
		if err != nil {
			return nil, err
		}
		owner, err := parseKey(sc.SeedOwner)
		if err != nil {
			return nil, err
		}
		instr = &sealevel.StakeInstrAuthorizeCheckedWithSeed{StakeAuthorize: role, AuthoritySeed: sc.Seed, AuthorityOwner: owner}

	case sealevel.StakeProgramInstrTypeSplit:
		instr = &sealevel.StakeInstrSplit{Lamports: sc.Lamports}

	case sealevel.StakeProgramInstrTypeSetLockup:
		args, err := sc.lockupArgs()
		if err != nil {
			return nil, err
		}
		instr = &sealevel.StakeInstrSetLockup{LockupArgs: args}

	case sealevel.StakeProgramInstrTypeSetLockupChecked:
		instr = &sealevel.StakeInstrSetLockupChecked{UnixTimestamp: sc.Lockup.UnixTimestamp, Epoch: sc.Lockup.Epoch}
	}

	return sealevel.MarshalStakeInstruction(instrType, instr)
}

// Account builds the ledger account described by fields.
func (fields *AccountFields) Account() (*accounts.Account, error) {
	key, err := parseKey(fields.Pubkey)
	if err != nil {
		return nil, err
	}

	acct := &accounts.Account{Key: key, Lamports: fields.Lamports, Executable: fields.Executable,
		Owner: sealevel.SystemProgramAddr}
	if fields.Owner != "" {
		acct.Owner, err = parseKey(fields.Owner)
		if err != nil {
			return nil, err
		}
	}

	if fields.Data != "" {
		acct.Data, err = base64.StdEncoding.DecodeString(fields.Data)
		if err != nil {
			return nil, fmt.Errorf("account %s: invalid base64 data: %w", fields.Pubkey, err)
		}
	} else {
		acct.Data = make([]byte, fields.DataLen)
	}
	return acct, nil
}
