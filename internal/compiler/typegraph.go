package compiler

import (
	"github.com/kinetic-lang/kinetic/internal/graph"
	"github.com/kinetic-lang/kinetic/internal/ir"
)

// Well-known adapter type tags matched by the conversion table. The
// registry supplies their implementations; the compiler only knows the
// CanonicalType patterns that select them.
const (
	adaptBroadcast = "adapt.broadcast"
	adaptReduce    = "adapt.reduce"
	adaptRadToNorm = "adapt.rad2norm"
	adaptNormToRad = "adapt.norm2rad"
)

// checkTypes validates that every output port resolved to a concrete type
// and that every edge's source type is compatible with its destination.
// Normalization already inserted every adapter it could; anything still
// mismatched here genuinely has no conversion path.
func (c *compilation) checkTypes() {
	c.recomputeOutTypes()

	for i := range c.doc.Blocks {
		b := &c.doc.Blocks[i]
		spec, ok := c.specs[b.ID]
		if !ok {
			continue
		}
		for _, port := range spec.Outputs {
			t := c.outTypes[graph.PortRef{Block: b.ID, Port: port.Name}]
			if !typeResolved(t) {
				c.diags.add(ErrUnresolvablePortType, b.ID, port.Name,
					"port type cannot be resolved (payload=%s)", t.Payload)
			}
		}
	}

	for _, e := range c.doc.Edges {
		srcT, ok := c.outTypes[e.From]
		if !ok || !typeResolved(srcT) {
			continue // unresolved source already diagnosed
		}
		dstSpec := c.specs[e.To.Block]
		if dstSpec == nil {
			continue
		}
		port, _ := dstSpec.Input(e.To.Port)
		dstT := c.substituteInput(e.To.Block, port)
		if dstT.Payload == ir.PayloadAny {
			c.diags.add(ErrUnresolvablePortType, e.To.Block, e.To.Port,
				"input port type cannot be resolved")
			continue
		}
		if tag, ok := conversion(srcT, dstT); !ok || tag != "" {
			c.diags.add(ErrNoConversionPath, e.To.Block, e.To.Port,
				"no conversion path from %s to the port's declared type",
				describeType(srcT))
		}
	}
}

// typeResolved reports whether a type is fully concrete: no payload
// genericity, no axis variables, no placeholder instance references.
func typeResolved(t ir.CanonicalType) bool {
	if t.Payload == ir.PayloadAny || t.Payload == "" {
		return false
	}
	if !t.Extent.Resolved() {
		return false
	}
	if t.Extent.Cardinality.Many && t.Extent.Cardinality.Instance == 0 {
		return false
	}
	return true
}

// conversion decides edge compatibility purely on CanonicalType patterns.
// It returns ("", true) for directly compatible types, (tag, true) when a
// single adapter converts between them, and ("", false) when no path
// exists. Promotions handled without adapters: a unit-neutral side accepts
// any unit, and a cardinality-flexible destination accepts either extent.
// Composite conversions (unit AND extent at once) are deliberately not
// chained.
func conversion(srcT, dstT ir.CanonicalType) (string, bool) {
	if !typeResolved(srcT) || dstT.Payload == ir.PayloadAny {
		return "", true // resolution failures are reported separately
	}

	srcEvent := srcT.TryEvent()
	dstEvent := dstT.Extent.Temporality.Discrete
	if srcEvent != dstEvent {
		return "", false
	}
	if srcEvent {
		return "", true // events carry a fixed bool/none shape
	}

	if srcT.Payload != dstT.Payload {
		return "", false
	}

	unitTag, unitOK := unitConversion(srcT, dstT)
	if !unitOK {
		return "", false
	}

	cardTag, cardOK := cardinalityConversion(srcT, dstT)
	if !cardOK {
		return "", false
	}

	if unitTag != "" && cardTag != "" {
		return "", false
	}
	if unitTag != "" {
		return unitTag, true
	}
	return cardTag, true
}

func unitConversion(srcT, dstT ir.CanonicalType) (string, bool) {
	su, du := srcT.Unit, dstT.Unit
	switch {
	case su == du, su == ir.UnitNone, du == ir.UnitNone:
		return "", true
	case su == ir.UnitRadians && du == ir.UnitNormalized && srcT.Payload == ir.PayloadScalar:
		return adaptRadToNorm, true
	case su == ir.UnitNormalized && du == ir.UnitRadians && srcT.Payload == ir.PayloadScalar:
		return adaptNormToRad, true
	default:
		return "", false
	}
}

func cardinalityConversion(srcT, dstT ir.CanonicalType) (string, bool) {
	dst := dstT.Extent.Cardinality
	if dst.Var != 0 {
		return "", true // flexible destination takes either
	}
	src := srcT.Extent.Cardinality
	switch {
	case src.Many == dst.Many:
		if src.Many && src.Instance != dst.Instance && dst.Instance != 0 {
			return "", false // distinct populations never convert
		}
		return "", true
	case dst.Many:
		if dst.Instance == 0 {
			return "", false // nowhere to broadcast to
		}
		return adaptBroadcast, true
	default:
		return adaptReduce, true
	}
}

func describeType(t ir.CanonicalType) string {
	return string(t.Kind()) + "/" + string(t.Payload) + "/" + string(t.Unit)
}
