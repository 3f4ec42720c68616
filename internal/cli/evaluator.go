package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/erangaIrugalbandara/PawFinderMess/internal/auth/biometric"
)

// terminalEvaluator is a development stand-in for a platform biometric
// prompt. It asks for confirmation on the terminal instead of touching any
// sensor hardware.
type terminalEvaluator struct {
	reader *bufio.Reader
	writer io.Writer
}

var _ biometric.Evaluator = (*terminalEvaluator)(nil)

func newTerminalEvaluator(r *bufio.Reader, w io.Writer) *terminalEvaluator {
	return &terminalEvaluator{reader: r, writer: w}
}

func (e *terminalEvaluator) Capability() biometric.Capability {
	return biometric.CapabilityFingerprint
}

func (e *terminalEvaluator) CanEvaluate() error {
	return nil
}

func (e *terminalEvaluator) Evaluate(ctx context.Context, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fmt.Fprintf(e.writer, "[biometric] %s\n", reason)
	answer, err := getSimpleText(e.reader, "Confirm? (y/n)", e.writer)
	if err != nil {
		return biometric.ErrFailed
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return nil
	case "n", "no":
		return biometric.ErrUserCancelled
	default:
		return biometric.ErrFailed
	}
}

func (e *terminalEvaluator) Invalidate() {}
