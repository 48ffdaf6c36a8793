package selection

import "errors"

var (
	// ErrUnknownOption indicates a prompt reply named a UTXO that was not offered.
	ErrUnknownOption = errors.New("selection: unknown option")

	// ErrNoPrompter indicates interactive selection was requested without a prompter.
	ErrNoPrompter = errors.New("selection: interactive selection needs a prompter")

	// ErrUnknownStrategy indicates an unrecognized strategy name.
	ErrUnknownStrategy = errors.New("selection: unknown strategy")
)
