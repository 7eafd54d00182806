package gatt

import "github.com/go-ble/ble"

// Services builds the GATT services served by the peripheral
func (s *Server) Services() []*ble.Service {
	return []*ble.Service{
		s.rangeService(),
		s.batteryService(),
		s.deviceInfoService(),
	}
}

func (s *Server) rangeService() *ble.Service {
	svc := ble.NewService(RangeServiceUUID)

	distance := ble.NewCharacteristic(RangeCharUUID)
	distance.HandleRead(ble.ReadHandlerFunc(func(_ ble.Request, rsp ble.ResponseWriter) {
		_, _ = rsp.Write(s.reading.Bytes())
	}))
	distance.HandleNotify(ble.NotifyHandlerFunc(func(_ ble.Request, n ble.Notifier) {
		s.serveRange(n)
	}))
	distance.NewDescriptor(userDescriptionUUID).SetValue([]byte("Distance in millimeters"))
	svc.AddCharacteristic(distance)

	config := ble.NewCharacteristic(ConfigCharUUID)
	config.HandleRead(ble.ReadHandlerFunc(func(_ ble.Request, rsp ble.ResponseWriter) {
		_, _ = rsp.Write(s.store.Bytes())
	}))
	config.HandleWrite(ble.WriteHandlerFunc(func(req ble.Request, rsp ble.ResponseWriter) {
		rsp.SetStatus(s.writeConfig(req.Offset(), req.Data()))
	}))
	config.NewDescriptor(userDescriptionUUID).SetValue([]byte("Sample interval, notify interval, max range, min range"))
	svc.AddCharacteristic(config)

	return svc
}

func (s *Server) batteryService() *ble.Service {
	svc := ble.NewService(BatteryServiceUUID)

	level := ble.NewCharacteristic(BatteryLevelUUID)
	level.HandleRead(ble.ReadHandlerFunc(func(_ ble.Request, rsp ble.ResponseWriter) {
		_, _ = rsp.Write([]byte{s.BatteryLevel()})
	}))
	level.HandleNotify(ble.NotifyHandlerFunc(func(_ ble.Request, n ble.Notifier) {
		s.serveBattery(n)
	}))
	level.NewDescriptor(userDescriptionUUID).SetValue([]byte("Battery level between 0 and 100 percent"))
	// uint8, exponent 0, unit percentage (0x27AD), namespace Bluetooth SIG
	level.NewDescriptor(presentationFormatUUID).SetValue([]byte{0x04, 0x00, 0xAD, 0x27, 0x01, 0x00, 0x00})
	svc.AddCharacteristic(level)

	return svc
}

func (s *Server) deviceInfoService() *ble.Service {
	svc := ble.NewService(DeviceInfoServiceUUID)
	svc.AddCharacteristic(staticChar(ManufacturerNameUUID, s.cfg.Manufacturer))
	svc.AddCharacteristic(staticChar(ModelNumberUUID, s.cfg.Model))

	return svc
}

func staticChar(uuid ble.UUID, value string) *ble.Characteristic {
	c := ble.NewCharacteristic(uuid)
	c.HandleRead(ble.ReadHandlerFunc(func(_ ble.Request, rsp ble.ResponseWriter) {
		_, _ = rsp.Write([]byte(value))
	}))

	return c
}
