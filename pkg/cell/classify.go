package cell

import "strings"

// ParseDirection maps a LEF DIRECTION keyword to a Direction. An absent
// direction ("") defaults to bidirectional.
func ParseDirection(kind string, tristate bool) Direction {
	if tristate {
		return DirectionTristate
	}
	switch strings.ToUpper(kind) {
	case "":
		return DirectionBidirectional
	case "INPUT":
		return DirectionInput
	case "OUTPUT":
		return DirectionOutput
	case "INOUT", "BIDIRECTIONAL":
		return DirectionBidirectional
	case "FEEDTHRU", "PASSIVE":
		return DirectionPassive
	default:
		return DirectionUnspecified
	}
}

// ParseRole maps a LEF USE keyword to a Role. ANALOG pins are signals.
func ParseRole(use string) Role {
	switch strings.ToUpper(use) {
	case "POWER":
		return RolePower
	case "GROUND":
		return RoleGround
	case "CLOCK":
		return RoleClock
	default:
		return RoleSignal
	}
}

// InferRole guesses a supply role from a pin name: vss/gnd is ground,
// vdd/vcc/pwr is power, anything else a signal. Ground is checked first.
// The pwr match covers the sky130 VPWR/KAPWR rails.
func InferRole(name string) Role {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "vss"), strings.Contains(lower, "gnd"):
		return RoleGround
	case strings.Contains(lower, "vdd"), strings.Contains(lower, "vcc"), strings.Contains(lower, "pwr"):
		return RolePower
	default:
		return RoleSignal
	}
}

// IsSupply reports whether the pin is a power or ground pin.
func (p Pin) IsSupply() bool {
	return p.Role == RolePower || p.Role == RoleGround
}

// ElectricalType returns the KiCad pin electrical type. Supply pins are
// always power_in whatever their declared direction.
func (p Pin) ElectricalType() string {
	if p.IsSupply() {
		return "power_in"
	}
	return p.Direction.String()
}

// GraphicalStyle returns the KiCad pin graphic style. The clock role wins
// over name-based inversion.
func (p Pin) GraphicalStyle() string {
	switch {
	case p.Role == RoleClock:
		return "clock"
	case p.IsInverted():
		return "inverted"
	default:
		return "line"
	}
}

// IsInverted reports whether the last underscore-separated segment of the
// name is "bar" or "n", ignoring case.
func (p Pin) IsInverted() bool {
	parts := strings.Split(strings.ToLower(p.Name), "_")
	last := parts[len(parts)-1]
	return last == "bar" || last == "n"
}
