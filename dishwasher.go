package miele

import (
	"github.com/guregu/null"

	"github.com/nlowe/miele/state"
)

// ExtendedDeviceStateProperty is the device property carrying the extended device state blob.
const ExtendedDeviceStateProperty = "extendedDeviceState"

// Channel IDs shared by appliance types.
const (
	PowerConsumptionChannelID = "powerConsumption"
	WaterConsumptionChannelID = "waterConsumption"
)

// Byte positions in a dishwasher's extended device state.
const (
	powerConsumptionOffset = 16
	waterConsumptionOffset = 18
)

var (
	DishwasherProductType = NewSelector(null.StringFrom("productTypeId"), "productType", KindString, AsProperty())
	DishwasherDeviceType  = NewSelector(null.StringFrom("mieleDeviceType"), "deviceType", KindString, AsProperty())
	DishwasherBrandID     = NewSelector(null.StringFrom("brandId"), "brandId", KindString, AsProperty())
	DishwasherCompanyID   = NewSelector(null.StringFrom("companyId"), "companyId", KindString, AsProperty())
	DishwasherState       = NewSelector(null.StringFrom("state"), "state", KindString)
	DishwasherProgram     = NewSelector(null.StringFrom("programId"), "program", KindString)
	DishwasherPhase       = NewSelector(null.StringFrom("phase"), "phase", KindString)
	DishwasherStartTime   = NewSelector(null.StringFrom("startTime"), "start", KindDateTime, MinuteTimestamp())
	DishwasherDuration    = NewSelector(null.StringFrom("duration"), "duration", KindDateTime, MinuteTimestamp())
	DishwasherElapsedTime = NewSelector(null.StringFrom("elapsedTime"), "elapsed", KindDateTime, MinuteTimestamp())
	DishwasherFinishTime  = NewSelector(null.StringFrom("finishTime"), "finish", KindDateTime, MinuteTimestamp())
	DishwasherDoor        = NewSelector(null.StringFrom("signalDoor"), "door", KindOpenClosed, DoorSignal())
	DishwasherSwitch      = NewSelector(null.String{}, "switch", KindOnOff, WithDefault(state.Off))

	// DishwasherPowerConsumption is reported in tenths of a kilowatt hour.
	DishwasherPowerConsumption = NewSelector(null.StringFrom(ExtendedDeviceStateProperty), PowerConsumptionChannelID, KindQuantity,
		WithUnit(state.KilowattHour), FromExtendedState(powerConsumptionOffset, 10))
	DishwasherWaterConsumption = NewSelector(null.StringFrom(ExtendedDeviceStateProperty), WaterConsumptionChannelID, KindQuantity,
		WithUnit(state.Litre), FromExtendedState(waterConsumptionOffset, 1))

	// Dishwasher holds every dishwasher selector.
	Dishwasher = MustRegistry(
		DishwasherProductType,
		DishwasherDeviceType,
		DishwasherBrandID,
		DishwasherCompanyID,
		DishwasherState,
		DishwasherProgram,
		DishwasherPhase,
		DishwasherStartTime,
		DishwasherDuration,
		DishwasherElapsedTime,
		DishwasherFinishTime,
		DishwasherDoor,
		DishwasherSwitch,
		DishwasherPowerConsumption,
		DishwasherWaterConsumption,
	)
)
