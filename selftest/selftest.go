// Package selftest is the boot-time MD5 check: hash a fixed string, compare
// it with the digest the image was built with and print one verdict line.
package selftest

import (
	"encoding/hex"

	"rvcheck/digest"
	"rvcheck/internal/logger"
	"rvcheck/report"
)

// Input is the message hashed by the check.
const Input = "1234567890abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Expected is MD5(Input).
var Expected = [digest.Size]byte{
	0x6d, 0x8d, 0x0b, 0x2c, 0x6a, 0x06, 0xf8, 0x8e,
	0x13, 0x16, 0x7f, 0xff, 0xac, 0xb1, 0xb7, 0x4e,
}

const (
	msgSuccess = "Check MD5 sum SUCCESS\n"
	msgFailure = "Check MD5 sum FAILURE: %d\n"
)

type Runner struct {
	Report   *report.Reporter
	Log      *logger.Logger
	Input    string
	Expected [digest.Size]byte
}

// New returns a runner for the built-in input and digest.
func New(r *report.Reporter, log *logger.Logger) *Runner {
	return &Runner{Report: r, Log: log, Input: Input, Expected: Expected}
}

// Compare returns 0 when got equals want, otherwise the 1-based index of the
// first differing byte.
func Compare(got, want [digest.Size]byte) int {
	for i := range got {
		if got[i] != want[i] {
			return i + 1
		}
	}
	return 0
}

// Compute hashes input with a fresh context, logging the context after each
// phase at debug level.
func (r *Runner) Compute() [digest.Size]byte {
	var ctx digest.Context

	ctx.Init()
	r.Log.Debug("After md5Init()", ctx.Fields())

	ctx.Update([]byte(r.Input))
	r.Log.Debug("After md5Update()", ctx.Fields())

	ctx.Finalize()
	r.Log.Debug("After md5Finalize()", ctx.Fields())

	return ctx.Digest
}

// Run performs one check and returns the verdict code, which is also the
// process exit status.
func (r *Runner) Run() int {
	sum := r.Compute()
	verdict := Compare(sum, r.Expected)

	if verdict == 0 {
		r.Report.Printf(msgSuccess)
	} else {
		r.Report.Printf(msgFailure, report.Int(verdict))
	}
	r.Log.Info("self-test finished", map[string]any{
		"verdict":  verdict,
		"digest":   hex.EncodeToString(sum[:]),
		"expected": hex.EncodeToString(r.Expected[:]),
	})
	return verdict
}
