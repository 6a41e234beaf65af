package state

// Unit is the symbol of a unit of measurement attached to a Quantity.
type Unit string

const (
	// KilowattHour measures energy, used for power consumption.
	KilowattHour Unit = "kWh"
	// Litre measures volume, used for water consumption.
	Litre Unit = "l"
)
