package gatt

import "github.com/go-ble/ble"

var (
	RangeServiceUUID = ble.MustParse("00000001-7272-6e67-6669-6e6465720000")
	RangeCharUUID    = ble.MustParse("00000002-7272-6e67-6669-6e6465720000")
	ConfigCharUUID   = ble.MustParse("00000003-7272-6e67-6669-6e6465720000")

	BatteryServiceUUID = ble.UUID16(0x180F)
	BatteryLevelUUID   = ble.UUID16(0x2A19)

	DeviceInfoServiceUUID = ble.UUID16(0x180A)
	ManufacturerNameUUID  = ble.UUID16(0x2A29)
	ModelNumberUUID       = ble.UUID16(0x2A24)

	userDescriptionUUID    = ble.UUID16(0x2901)
	presentationFormatUUID = ble.UUID16(0x2904)
)

// ATT status codes returned for rejected config writes
const (
	attInvalidOffset   = ble.ATTError(0x07)
	attInvalidLength   = ble.ATTError(0x0D)
	attUnlikely        = ble.ATTError(0x0E)
	attValueNotAllowed = ble.ATTError(0x13)
)
