package estimator

// aggregateLatencies walks the path of every request and sums the delay of
// each hop on top of the serialization delay of the packet.
func (s *solver) aggregateLatencies() []float64 {
	perHop := s.arch.ArbitrationDelay + s.arch.SwitchingDelay +
		s.arch.WireDelay
	latencies := make([]float64, len(s.flows.paths))

	for i, path := range s.flows.paths {
		latency := s.serializationDelay()

		for _, h := range path {
			latency += perHop + s.w[s.flows.index3(h.Router, h.In, h.Out)]
		}

		latencies[i] = latency
	}

	return latencies
}
