package estimator

import (
	"math"

	"github.com/sarchlab/noclat/noc/mesh"
)

func archMustBeValid(arch ArchConfig) (*mesh.Topology, error) {
	topo, err := mesh.NewTopology(
		arch.Dim, arch.NumRouters, arch.PortsPerRouter)
	if err != nil {
		return nil, newConfigError(err, "invalid mesh")
	}

	delays := []struct {
		name  string
		value float64
	}{
		{"arbitration delay", arch.ArbitrationDelay},
		{"switching delay", arch.SwitchingDelay},
		{"wire delay", arch.WireDelay},
		{"input buffer capacity", arch.InputBufferCapacity},
		{"output buffer capacity", arch.OutputBufferCapacity},
	}

	for _, d := range delays {
		if !isNonNegative(d.value) {
			return nil, newConfigError(nil, "%s is %v", d.name, d.value)
		}
	}

	return topo, nil
}

func taskMustBeValid(task TaskConfig, topo *mesh.Topology) error {
	if task.PacketLength < 1 {
		return newConfigError(nil,
			"packet length %d is not positive", task.PacketLength)
	}

	if !isNonNegative(task.InjectionCV) {
		return newConfigError(nil,
			"injection coefficient of variation is %v", task.InjectionCV)
	}

	type pair struct{ src, dst int }

	seen := make(map[pair]int, len(task.Requests))

	for i, req := range task.Requests {
		if !topo.Contains(req.Src) || !topo.Contains(req.Dst) {
			return newConfigError(nil,
				"request %d (%d->%d) is outside the mesh of %d routers",
				i, req.Src, req.Dst, topo.NumRouters())
		}

		if !isNonNegative(req.Rate) {
			return newConfigError(nil,
				"request %d (%d->%d) has rate %v", i, req.Src, req.Dst, req.Rate)
		}

		p := pair{req.Src, req.Dst}
		if first, found := seen[p]; found {
			return newConfigError(nil,
				"requests %d and %d are both %d->%d",
				first, i, req.Src, req.Dst)
		}

		seen[p] = i
	}

	return nil
}

func isNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
