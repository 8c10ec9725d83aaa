package domain

// VehicleType names one of the fixed vehicle-count columns offered by the
// vehicle selector.
type VehicleType string

const (
	VehicleAutos      VehicleType = "AUTOS"
	VehicleMotos      VehicleType = "MOTOS"
	VehicleBus2Axles  VehicleType = "AUTOBUS DE 2 EJES"
	VehicleBus3Axles  VehicleType = "AUTOBUS DE 3 EJES"
	VehicleTruck2Axle VehicleType = "CAMIONES DE 2 EJES"
)

// VehicleTypes lists the selectable vehicle types in display order. It does
// not depend on the dataset.
func VehicleTypes() []VehicleType {
	return []VehicleType{VehicleAutos, VehicleMotos, VehicleBus2Axles, VehicleBus3Axles, VehicleTruck2Axle}
}

// Valid reports whether v is one of the fixed vehicle types.
func (v VehicleType) Valid() bool {
	switch v {
	case VehicleAutos, VehicleMotos, VehicleBus2Axles, VehicleBus3Axles, VehicleTruck2Axle:
		return true
	default:
		return false
	}
}
