// Package miele decodes the raw property values reported by Miele appliances into typed channel states.
//
// Each channel of an appliance is described by a ChannelSelector: the device property it reads, the channel it feeds,
// the kind of state it produces and whether the value is a static appliance property or has to be cut out of the
// extended device state blob. Selectors for one appliance type are grouped in a Registry; Dishwasher is the registry
// for dishwashers.
//
// Decoding happens in two steps. If the device supplied MetaData for the value, the raw string is first resolved
// against it: a matching MieleEnum entry replaces the value with the entry's key, otherwise the device's
// LocalizedValue is used, otherwise the raw string is kept. The result is then parsed according to the selector's
// ValueKind, unless the selector carries its own rule (timestamps counted in minutes, the door signal).
//
// Failures never panic. ChannelSelector.State returns a *DecodeError, and a Decoder hands every failure to its
// Reporter and returns no state so the caller can skip the channel for this cycle. Selectors, registries and decoders
// are immutable once built and safe for concurrent use.
package miele
