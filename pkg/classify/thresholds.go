package classify

// EquipmentType is one of the four equipment classes the numeric-trigger
// path recognizes.
type EquipmentType string

const (
	EquipmentPress   EquipmentType = "PRESS"
	EquipmentWeld    EquipmentType = "WELD"
	EquipmentPaint   EquipmentType = "PAINT"
	EquipmentVehicle EquipmentType = "VEHICLE"
)

// Range is an inclusive [Low, High] band.
type Range struct {
	Low  float64
	High float64
}

// MetricThreshold holds the quartile statistics and alert bands for one
// sensor metric on one equipment type.
type MetricThreshold struct {
	Q1           float64
	Q2           float64
	Q3           float64
	NormalRange  Range
	WarningRange Range
	CriticalMax  float64
	Unit         string
}

// EquipmentThresholds maps equipment type -> metric name -> threshold.
// Seeded from the line's EDA-team box-plot analysis of historical sensor
// readings.
var EquipmentThresholds = map[EquipmentType]map[string]MetricThreshold{
	EquipmentPress: {
		"PRESSURE": {
			Q1: 75, Q2: 85, Q3: 95,
			NormalRange: Range{75, 95}, WarningRange: Range{65, 105}, CriticalMax: 125,
			Unit: "bar",
		},
		"VIBRATION": {
			Q1: 3.2, Q2: 5.8, Q3: 8.5,
			NormalRange: Range{3.2, 8.5}, WarningRange: Range{0, 12.0}, CriticalMax: 15.0,
			Unit: "mm/s",
		},
		"CURRENT": {
			Q1: 4.8, Q2: 5.5, Q3: 6.2,
			NormalRange: Range{4.8, 6.2}, WarningRange: Range{0, 8.0}, CriticalMax: 10.0,
			Unit: "A",
		},
	},
	EquipmentWeld: {
		"SENSOR_VALUE": {
			Q1: 8.5, Q2: 10.4, Q3: 12.3,
			NormalRange: Range{8.5, 12.3}, WarningRange: Range{7.0, 12.3}, CriticalMax: 0, // no critical band: Evaluate reports low readings as WARNING
			Unit: "V",
		},
		"TEMPERATURE": {
			Q1: 180, Q2: 200, Q3: 220,
			NormalRange: Range{180, 220}, WarningRange: Range{0, 250}, CriticalMax: 300,
			Unit: "°C",
		},
	},
	EquipmentPaint: {
		"THICKNESS": {
			Q1: 22, Q2: 25, Q3: 28,
			NormalRange: Range{22, 28}, WarningRange: Range{18, 28}, CriticalMax: 0,
			Unit: "μm",
		},
		"VOLTAGE": {
			Q1: 215, Q2: 225, Q3: 235,
			NormalRange: Range{215, 235}, WarningRange: Range{200, 250}, CriticalMax: 270,
			Unit: "V",
		},
		"TEMPERATURE": {
			Q1: 60, Q2: 70, Q3: 80,
			NormalRange: Range{60, 80}, WarningRange: Range{0, 90}, CriticalMax: 100,
			Unit: "°C",
		},
	},
	EquipmentVehicle: {
		"ASSEMBLY_FORCE": {
			Q1: 150, Q2: 175, Q3: 200,
			NormalRange: Range{150, 200}, WarningRange: Range{0, 250}, CriticalMax: 300,
			Unit: "N",
		},
	},
}

// Status classifies a reading against its metric's bands.
type Status string

const (
	StatusNormal   Status = "NORMAL"
	StatusWarning  Status = "WARNING"
	StatusCritical Status = "CRITICAL"
)

// Evaluate classifies a single reading for an equipment/metric pair. Returns
// ok=false if the equipment/metric combination isn't in the table.
func Evaluate(equipment EquipmentType, metric string, value float64) (status Status, ok bool) {
	metrics, ok := EquipmentThresholds[equipment]
	if !ok {
		return "", false
	}
	t, ok := metrics[metric]
	if !ok {
		return "", false
	}

	switch {
	case value >= t.NormalRange.Low && value <= t.NormalRange.High:
		return StatusNormal, true
	case t.CriticalMax > 0 && value > t.CriticalMax:
		return StatusCritical, true
	case value < t.WarningRange.Low || value > t.WarningRange.High:
		return StatusWarning, true
	default:
		return StatusWarning, true
	}
}
