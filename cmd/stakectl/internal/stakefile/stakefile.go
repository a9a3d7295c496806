// Package stakefile reads stake account data files and renders decoded
// stake states for the stakectl subcommands.
package stakefile

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/mr-tron/base58"
	"go.firedancer.io/stake/pkg/sealevel"
)

// Read loads the stake account data stored at path.
func Read(path string) ([]byte, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data, err := Decode(contents)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

var ErrNotStakeData = errors.New("not stake account data")

// Decode accepts raw account data of exactly sealevel.StakeStateV2Size
// bytes, or the same data as base64 or base58 text. Text that decodes to
// any other length is rejected.
func Decode(contents []byte) ([]byte, error) {
	if len(contents) == sealevel.StakeStateV2Size {
		return contents, nil
	}

	text := string(bytes.TrimSpace(contents))
	if data, err := base64.StdEncoding.DecodeString(text); err == nil && len(data) == sealevel.StakeStateV2Size {
		return data, nil
	}
	if data, err := base58.Decode(text); err == nil && len(data) == sealevel.StakeStateV2Size {
		return data, nil
	}
	return nil, fmt.Errorf("%w: neither raw, base64 nor base58 of %d bytes (got %d bytes of input)",
		ErrNotStakeData, sealevel.StakeStateV2Size, len(contents))
}

type Field struct {
	Name  string
	Value string
}

func epochString(epoch uint64) string {
	if epoch == math.MaxUint64 {
		return "none"
	}
	return strconv.FormatUint(epoch, 10)
}

// Describe flattens state into printable fields.
func Describe(state *sealevel.StakeStateV2) []Field {
	fields := []Field{{"state", state.String()}}

	meta, ok := state.Meta()
	if !ok {
		return fields
	}
	fields = append(fields,
		Field{"rent_exempt_reserve", strconv.FormatUint(meta.RentExemptReserve, 10)},
		Field{"staker", meta.Authorized.Staker.String()},
		Field{"withdrawer", meta.Authorized.Withdrawer.String()},
		Field{"lockup_unix_timestamp", strconv.FormatInt(meta.Lockup.UnixTimestamp, 10)},
		Field{"lockup_epoch", strconv.FormatUint(meta.Lockup.Epoch, 10)},
		Field{"lockup_custodian", meta.Lockup.Custodian.String()},
	)

	if state.Status != sealevel.StakeStateV2StatusStake {
		return fields
	}
	stake := state.Stake.Stake
	return append(fields,
		Field{"voter", stake.Delegation.VoterPubkey.String()},
		Field{"stake", strconv.FormatUint(stake.Delegation.Stake, 10)},
		Field{"activation_epoch", epochString(stake.Delegation.ActivationEpoch)},
		Field{"deactivation_epoch", epochString(stake.Delegation.DeactivationEpoch)},
		Field{"credits_observed", strconv.FormatUint(stake.CreditsObserved, 10)},
		Field{"flags", strconv.FormatUint(uint64(state.Stake.StakeFlags.Bits), 10)},
	)
}

// IsTerminal reports whether stdout is an interactive terminal.
func IsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Print writes one record. On a terminal every field gets its own aligned
// line, otherwise the record is a single line of name=value pairs.
func Print(w io.Writer, title string, fields []Field, pretty bool) {
	if pretty {
		fmt.Fprintf(w, "%s\n", title)
		for _, field := range fields {
			fmt.Fprintf(w, "  %-22s %s\n", field.Name, field.Value)
		}
		return
	}

	fmt.Fprintf(w, "file=%s", title)
	for _, field := range fields {
		fmt.Fprintf(w, " %s=%s", field.Name, field.Value)
	}
	fmt.Fprintln(w)
}
