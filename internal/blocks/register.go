package blocks

import "github.com/kinetic-lang/kinetic/internal/graph"

// DefaultRegistry builds a registry holding the full builtin block library.
// The compiler takes the registry as a parameter, so tests and embedders can
// provide their own; this is the set the CLI uses.
func DefaultRegistry() *graph.Registry {
	r := graph.NewRegistry()
	for _, spec := range allSpecs() {
		r.MustRegister(spec)
	}
	return r
}

func allSpecs() []*graph.BlockSpec {
	return []*graph.BlockSpec{
		timeRootSpec(),

		constSpec(),
		constColorSpec(),
		constVec2Spec(),

		waveSineSpec(),
		waveSawSpec(),
		wavePulseSpec(),

		mathAddSpec(),
		mathMulSpec(),
		mathSumSpec(),
		mathScaleSpec(),
		mathMixSpec(),
		gateSpec(),

		fieldParticlesSpec(),
		fieldPolarSpec(),

		stateAccumulateSpec(),

		inputChannelSpec(),
		renderPointsSpec(),

		adaptBroadcastSpec(),
		adaptReduceSpec(),
		adaptRadToNormSpec(),
		adaptNormToRadSpec(),
	}
}
