package confirmation

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"treesafe/internal/display"
)

// ConfirmationService prompts before restores overwrite existing data
type ConfirmationService interface {
	ConfirmRestore(archivePath, destination string, autoApprove bool) (bool, error)
	HandleInterruption() error
}

type confirmationService struct {
	colors display.ColorSystem
	reader *bufio.Reader
	out    io.Writer
}

// NewConfirmationService prompts on the process terminal.
func NewConfirmationService() ConfirmationService {
	return &confirmationService{
		colors: display.NewColorSystem(),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

// NewConfirmationServiceWithStreams creates a service bound to explicit
// streams. Used by tests.
func NewConfirmationServiceWithStreams(in io.Reader, out io.Writer) ConfirmationService {
	return &confirmationService{
		colors: display.NewPlainColorSystem(),
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// ConfirmRestore warns when the destination already holds files and asks
// before extraction proceeds. An empty or missing destination needs no
// confirmation.
func (cs *confirmationService) ConfirmRestore(archivePath, destination string, autoApprove bool) (bool, error) {
	populated, err := destinationPopulated(destination)
	if err != nil {
		return false, fmt.Errorf("failed to inspect destination: %w", err)
	}
	if !populated {
		return true, nil
	}

	fmt.Fprintln(cs.out, cs.colors.Colorize("Destination is not empty", display.ColorYellow))
	fmt.Fprintf(cs.out, "Restoring %s into %s may overwrite existing files.\n", archivePath, destination)

	if autoApprove {
		fmt.Fprintln(cs.out, cs.colors.Colorize("Auto-approving restore...", display.ColorGreen))
		return true, nil
	}

	// Ctrl-C during the prompt aborts the restore cleanly.
	interruptChan := make(chan os.Signal, 1)
	signal.Notify(interruptChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interruptChan)

	inputChan := make(chan string, 1)
	errorChan := make(chan error, 1)

	go func() {
		input, err := cs.promptForConfirmation()
		if err != nil {
			errorChan <- err
			return
		}
		inputChan <- input
	}()

	select {
	case <-interruptChan:
		fmt.Fprintln(cs.out, "\n"+cs.colors.Colorize("Operation cancelled by user", display.ColorYellow))
		return false, cs.HandleInterruption()
	case err := <-errorChan:
		return false, fmt.Errorf("failed to read user input: %w", err)
	case input := <-inputChan:
		return parseConfirmationInput(input), nil
	}
}

// HandleInterruption reports a user interruption during confirmation
func (cs *confirmationService) HandleInterruption() error {
	return fmt.Errorf("restore cancelled by user interruption")
}

// promptForConfirmation reads one line from the user
func (cs *confirmationService) promptForConfirmation() (string, error) {
	fmt.Fprint(cs.out, "Continue with restore? [y/N]: ")
	input, err := cs.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// parseConfirmationInput accepts only an explicit yes
func parseConfirmationInput(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// destinationPopulated reports whether the directory exists and contains
// at least one entry
func destinationPopulated(destination string) (bool, error) {
	entries, err := os.ReadDir(destination)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return len(entries) > 0, nil
}
