// Package state contains the typed values a channel can report once its raw device value has been decoded. Every
// value implements State, and the textual form returned by String is what gets published for the channel.
//
// Parsing functions in this package are strict: they accept only the canonical representation of each type and
// report anything else as ErrInvalid. Channel-specific leniency (mapping "true" to Open, minute counts to timestamps,
// localized enumerations) is applied by the selectors in the root package before these parsers run.
package state
